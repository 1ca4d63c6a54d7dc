package maincmd

import (
	"strconv"

	"github.com/mna/luaj/lang/machine"
	"github.com/mna/luaj/lang/value"
)

// formatValue renders a Value for CLI output: call results, error
// messages, printed return values. This is display formatting only, not
// part of the language's own semantics (there is no print/tostring
// builtin in scope).
func formatValue(st *machine.State, v value.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsTrue():
		return "true"
	case v.IsFalse():
		return "false"
	case v.IsNumber():
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case v.IsPointer():
		if s, ok := st.Heap.Resolve(v).(*value.StringObj); ok {
			return s.String()
		}
		return "<" + st.Heap.TypeName(v) + ">"
	default:
		return "<" + st.Heap.TypeName(v) + ">"
	}
}
