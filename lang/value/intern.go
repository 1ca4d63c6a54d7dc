package value

import "github.com/dolthub/swiss"

// StringInterner deduplicates string objects by content using a
// SwissTable-backed hash map, keyed by the string bytes rather than by
// object identity. Interning is the "permissible optimisation" called out
// in the spec: it never changes observable equality, since string
// equality always compares content (see Heap.Equal), not identity.
type StringInterner struct {
	m *swiss.Map[string, Value]
}

// NewStringInterner returns an empty interner with a small initial
// capacity; it grows on demand like the underlying SwissTable.
func NewStringInterner() *StringInterner {
	return &StringInterner{m: swiss.NewMap[string, Value](64)}
}

func (si *StringInterner) lookup(b []byte) (Value, bool) {
	return si.m.Get(string(b))
}

func (si *StringInterner) store(b []byte, v Value) {
	si.m.Put(string(b), v)
}
