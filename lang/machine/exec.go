package machine

import (
	"fmt"
	"math"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/value"
)

// maxRegsPerFrame is the widest register window a single frame can ever
// need: a slot operand is 8 bits, so no instruction can name a slot past
// 255.
const maxRegsPerFrame = 256

func (st *State) reg(base int, slot uint8) value.Value {
	return st.regs[base+int(slot)]
}

func (st *State) setReg(base int, slot uint8, v value.Value) {
	st.regs[base+int(slot)] = v
}

// ensureStack grows the register stack, doubling its capacity, until it
// can address at least n slots, refusing to exceed maxStack.
func (st *State) ensureStack(n int) *RuntimeError {
	st.init()
	if n <= len(st.regs) {
		return nil
	}
	if n > st.maxStack {
		return &RuntimeError{Msg: "stack overflow"}
	}
	newSize := len(st.regs)
	if newSize == 0 {
		newSize = initialStackSize
	}
	for newSize < n {
		newSize *= 2
	}
	if newSize > st.maxStack {
		newSize = st.maxStack
	}
	if st.alloc != nil && !st.alloc(len(st.regs), newSize) {
		return &RuntimeError{Msg: "out of memory growing the register stack", Mem: true}
	}
	grown := make([]value.Value, newSize)
	copy(grown, st.regs)
	st.regs = grown
	return nil
}

func (st *State) errorf(fr *frame, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		ChunkName: fr.proto.ChunkName,
		Line:      fr.proto.Line(fr.ip - 1),
		Msg:       fmt.Sprintf(format, args...),
	}
}

func primValue(tag uint16) value.Value {
	switch tag {
	case code.PrimTrue:
		return value.True()
	case code.PrimFalse:
		return value.False()
	default:
		return value.Nil()
	}
}

// run is the threaded dispatch loop: a flat switch standing in for the
// computed-goto thread Lua's own interpreter uses (Go has no
// labels-as-values), executing instructions until the call stack unwinds
// back to entryDepth. It never recurses for a Lua-level call — CALL just
// pushes a frame onto st.frames and the same loop picks it up — so a
// runtime error can unwind any number of luaj frames with one return,
// exactly the idiomatic replacement for the spec's longjmp-based unwind.
//
// produced is only meaningful to a caller that requested -1 ("as many
// results as produced"): it is the actual count the terminating RET wrote.
func (st *State) run(entryDepth int) (produced int, rerr *RuntimeError) {
	for len(st.frames) > entryDepth {
		select {
		case <-st.ctx.Done():
			return 0, &RuntimeError{Msg: "thread cancelled"}
		default:
		}

		fr := &st.frames[len(st.frames)-1]
		proto := fr.proto
		base := fr.base
		ip := fr.ip
		ins := proto.Ins[ip]
		fr.ip = ip + 1

		st.steps++
		if st.steps > st.maxSteps {
			return 0, st.errorf(fr, "too many steps")
		}

		switch op := ins.Op(); op {
		case code.NOP:

		case code.MOV:
			st.setReg(base, ins.A(), st.reg(base, uint8(ins.D())))

		case code.KPRIM:
			st.setReg(base, ins.A(), primValue(ins.D()))

		case code.KINT:
			st.setReg(base, ins.A(), value.Number(float64(int16(ins.D()))))

		case code.KNUM, code.KSTR, code.KFN:
			st.setReg(base, ins.A(), proto.K[ins.D()])

		case code.KNIL:
			a, d := ins.A(), ins.D()
			for s := int(a); s <= int(d); s++ {
				st.setReg(base, uint8(s), value.Nil())
			}

		case code.NEG:
			v := st.reg(base, uint8(ins.D()))
			if !v.IsNumber() {
				return 0, st.errorf(fr, "attempt to negate a %s value", st.Heap.TypeName(v))
			}
			st.setReg(base, ins.A(), value.Number(-v.Float()))

		case code.NOT:
			v := st.reg(base, uint8(ins.D()))
			st.setReg(base, ins.A(), value.Bool(!v.ComparesTrue()))

		case code.ADDVV, code.SUBVV, code.MULVV, code.DIVVV, code.MODVV,
			code.ADDVN, code.SUBVN, code.MULVN, code.DIVVN, code.MODVN,
			code.SUBNV, code.DIVNV, code.MODNV, code.POW:
			v, err := st.arith(fr, op, ins)
			if err != nil {
				return 0, err
			}
			st.setReg(base, ins.A(), v)

		case code.CONCAT:
			v, err := st.concat(fr, ins)
			if err != nil {
				return 0, err
			}
			st.setReg(base, ins.A(), v)

		case code.IST:
			if st.reg(base, uint8(ins.D())).ComparesTrue() {
				fr.ip++
			}
		case code.ISF:
			if !st.reg(base, uint8(ins.D())).ComparesTrue() {
				fr.ip++
			}
		case code.ISTC:
			v := st.reg(base, uint8(ins.D()))
			if v.ComparesTrue() {
				st.setReg(base, ins.A(), v)
				fr.ip++
			}
		case code.ISFC:
			v := st.reg(base, uint8(ins.D()))
			if !v.ComparesTrue() {
				st.setReg(base, ins.A(), v)
				fr.ip++
			}

		case code.EQVV, code.NEQVV:
			a := st.reg(base, ins.A())
			b := st.reg(base, uint8(ins.D()))
			if st.Heap.Equal(a, b) == (op == code.EQVV) {
				fr.ip++
			}
		case code.EQVP, code.NEQVP:
			a := st.reg(base, ins.A())
			b := primValue(ins.D())
			if st.Heap.Equal(a, b) == (op == code.EQVP) {
				fr.ip++
			}
		case code.EQVN, code.NEQVN, code.EQVS, code.NEQVS:
			a := st.reg(base, ins.A())
			b := proto.K[ins.D()]
			if st.Heap.Equal(a, b) == (op == code.EQVN || op == code.EQVS) {
				fr.ip++
			}

		case code.LTVV, code.LEVV, code.GTVV, code.GEVV:
			a := st.reg(base, ins.A())
			b := st.reg(base, uint8(ins.D()))
			cond, err := st.compare(fr, op, a, b)
			if err != nil {
				return 0, err
			}
			if cond {
				fr.ip++
			}
		case code.LTVN, code.LEVN, code.GTVN, code.GEVN:
			a := st.reg(base, ins.A())
			b := proto.K[ins.D()]
			cond, err := st.compare(fr, op, a, b)
			if err != nil {
				return 0, err
			}
			if cond {
				fr.ip++
			}

		case code.JMP:
			fr.ip = code.JumpTarget(ins, ip)

		case code.CALL:
			if err := st.doCall(fr, ins); err != nil {
				return 0, err
			}

		case code.RET0, code.RET1, code.RET:
			done, n, err := st.doReturn(fr, ins, op, entryDepth)
			if err != nil {
				return 0, err
			}
			if done {
				return n, nil
			}

		default:
			return 0, st.errorf(fr, "illegal instruction %s", op)
		}
	}
	return 0, nil
}

func (st *State) arith(fr *frame, op code.Op, ins code.Instruction) (value.Value, *RuntimeError) {
	base := fr.base
	var left, right value.Value
	switch op {
	case code.ADDVV, code.SUBVV, code.MULVV, code.DIVVV, code.MODVV, code.POW:
		left = st.reg(base, ins.B())
		right = st.reg(base, ins.C())
	case code.ADDVN, code.SUBVN, code.MULVN, code.DIVVN, code.MODVN:
		left = st.reg(base, ins.B())
		right = fr.proto.K[ins.C()]
	case code.SUBNV, code.DIVNV, code.MODNV:
		left = fr.proto.K[ins.B()]
		right = st.reg(base, ins.C())
	}
	if !left.IsNumber() || !right.IsNumber() {
		return 0, st.errorf(fr, "attempt to %s a %s and %s value", arithVerb(op), st.Heap.TypeName(left), st.Heap.TypeName(right))
	}

	a, b := left.Float(), right.Float()
	var n float64
	switch op {
	case code.ADDVV, code.ADDVN:
		n = a + b
	case code.SUBVV, code.SUBVN, code.SUBNV:
		n = a - b
	case code.MULVV, code.MULVN:
		n = a * b
	case code.DIVVV, code.DIVVN, code.DIVNV:
		n = a / b
	case code.MODVV, code.MODVN, code.MODNV:
		n = a - floorDiv(a, b)*b
	case code.POW:
		n = math.Pow(a, b)
	}
	return value.Number(n), nil
}

func arithVerb(op code.Op) string {
	switch op {
	case code.ADDVV, code.ADDVN:
		return "add"
	case code.SUBVV, code.SUBVN, code.SUBNV:
		return "subtract"
	case code.MULVV, code.MULVN:
		return "multiply"
	case code.DIVVV, code.DIVVN, code.DIVNV:
		return "divide"
	case code.MODVV, code.MODVN, code.MODNV:
		return "perform modulo on"
	case code.POW:
		return "exponentiate"
	default:
		return "operate on"
	}
}

// floorDiv matches the compiler's own constant-folding formula for `%`
// (see lang/emit's foldArith) so a folded modulo and a runtime-evaluated
// one never disagree.
func floorDiv(a, b float64) float64 {
	q := a / b
	i := float64(int64(q))
	if i > q {
		i--
	}
	return i
}

func (st *State) compare(fr *frame, op code.Op, a, b value.Value) (bool, *RuntimeError) {
	if !a.IsNumber() || !b.IsNumber() {
		return false, st.errorf(fr, "attempt to compare a %s value with a %s value", st.Heap.TypeName(a), st.Heap.TypeName(b))
	}
	x, y := a.Float(), b.Float()
	switch op {
	case code.LTVV, code.LTVN:
		return x < y, nil
	case code.LEVV, code.LEVN:
		return x <= y, nil
	case code.GTVV, code.GTVN:
		return x > y, nil
	default: // GEVV, GEVN
		return x >= y, nil
	}
}

func (st *State) concat(fr *frame, ins code.Instruction) (value.Value, *RuntimeError) {
	base := fr.base
	b, c := ins.B(), ins.C()
	parts := make([]*value.StringObj, 0, int(c)-int(b)+1)
	for s := int(b); s <= int(c); s++ {
		v := st.reg(base, uint8(s))
		so, ok := stringObj(st.Heap, v)
		if !ok {
			return 0, st.errorf(fr, "attempt to concatenate a %s value", st.Heap.TypeName(v))
		}
		parts = append(parts, so)
	}
	return st.Heap.ConcatStrings(parts), nil
}

func stringObj(h *value.Heap, v value.Value) (*value.StringObj, bool) {
	if !v.IsPointer() {
		return nil, false
	}
	so, ok := h.Resolve(v).(*value.StringObj)
	return so, ok
}

func (st *State) doCall(caller *frame, ins code.Instruction) *RuntimeError {
	calleeSlot := ins.A()
	nargs := int(ins.B())
	want := int(ins.C())

	calleeVal := st.reg(caller.base, calleeSlot)
	proto, ok := funcProto(st.Heap, calleeVal)
	if !ok {
		return st.errorf(caller, "attempt to call a %s value", st.Heap.TypeName(calleeVal))
	}

	if len(st.frames) >= st.maxCallDepth {
		return st.errorf(caller, "stack overflow")
	}

	newBase := caller.base + int(calleeSlot) + 1
	if err := st.ensureStack(newBase + maxRegsPerFrame); err != nil {
		return err
	}
	for i := nargs; i < proto.NumParams; i++ {
		st.setReg(newBase, uint8(i), value.Nil())
	}

	st.frames = append(st.frames, frame{proto: proto, ip: 0, base: newBase, want: want})
	return nil
}

func funcProto(h *value.Heap, v value.Value) (*value.FuncProto, bool) {
	if !v.IsPointer() {
		return nil, false
	}
	fp, ok := h.Resolve(v).(*value.FuncProto)
	return fp, ok
}

// doReturn pops the current frame and writes its return values into the
// caller's slots starting at the call's base-1, padding any shortfall
// with nil (want >= 0) or leaving the exact count (want == -1, only the
// State.Call/PCall entry frame ever asks for that). done reports whether
// this pop brought the call stack back to entryDepth, at which point run
// must stop and hand n back to its own caller.
func (st *State) doReturn(fr *frame, ins code.Instruction, op code.Op, entryDepth int) (done bool, n int, rerr *RuntimeError) {
	base := fr.base
	srcBase := base
	switch op {
	case code.RET0:
		n = 0
	case code.RET1:
		n = 1
		srcBase = base + int(ins.D())
	case code.RET:
		n = int(ins.D())
		srcBase = base + int(ins.A())
	}

	want := fr.want
	dstBase := fr.base - 1

	st.frames = st.frames[:len(st.frames)-1]

	ncopy := n
	if want >= 0 && ncopy > want {
		ncopy = want
	}
	for i := 0; i < ncopy; i++ {
		st.regs[dstBase+i] = st.regs[srcBase+i]
	}
	if want >= 0 {
		for i := ncopy; i < want; i++ {
			st.regs[dstBase+i] = value.Nil()
		}
	}

	if len(st.frames) == entryDepth {
		if want < 0 {
			return true, n, nil
		}
		return true, want, nil
	}
	return false, 0, nil
}
