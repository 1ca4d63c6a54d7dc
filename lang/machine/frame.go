package machine

import "github.com/mna/luaj/lang/value"

// frame records one active CALL: the prototype being executed, the next
// instruction to run, the register window it owns (its slot 0 lives at
// regs[base]), and how many results its caller is waiting for. want is -1
// for "as many as are produced", a shape only State.Call/PCall's own
// entry frame ever uses — a CALL instruction's C operand is always a
// concrete, non-negative count by the time the compiler emits it.
type frame struct {
	proto *value.FuncProto
	ip    int
	base  int
	want  int
}
