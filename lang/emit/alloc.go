package emit

import "github.com/mna/luaj/lang/code"

// ReserveSlot allocates the next free register and bumps the stack top,
// or ok=false if doing so would exceed the 8-bit slot operand's range.
func (fs *FuncState) ReserveSlot() (slot uint8, ok bool) {
	if fs.numStack >= 0xff {
		return 0, false
	}
	slot = uint8(fs.numStack)
	fs.numStack++
	return slot, true
}

// FreeSlot releases slot if (and only if) it is both the current stack top
// and above the committed locals — the freeing rule that prevents
// reclaiming a local or an interior stack value out of order.
func (fs *FuncState) FreeSlot(slot uint8) {
	if int(slot) == fs.numStack-1 && int(slot) >= fs.numLocals {
		fs.numStack--
	}
}

// FreeExpr releases e's slot via FreeSlot if e currently occupies one
// (non-reloc or local).
func (fs *FuncState) FreeExpr(e *Expr) {
	switch e.Kind {
	case KindNonReloc, KindLocal:
		fs.FreeSlot(e.Slot)
	}
}

// Discharge normalises a local or call expression to non-reloc so it
// carries a concrete slot like any other materialized value: a local's
// slot is itself, a call's is the CALL instruction's own base register.
func (fs *FuncState) Discharge(e *Expr) {
	switch e.Kind {
	case KindLocal:
		e.Kind = KindNonReloc
	case KindCall:
		ins := fs.Proto.Ins[e.PC]
		e.Slot = ins.A()
		e.Kind = KindNonReloc
	}
}

// ToSlot forces e's value into slot dst, emitting the minimal instruction
// for its variant, then reconciling any jump list by synthesizing
// true/false tail instructions if some list member lacks an associated
// value. Reports false on constant-pool exhaustion.
func (fs *FuncState) ToSlot(e *Expr, dst uint8, line int) bool {
	fs.Discharge(e)

	switch e.Kind {
	case KindPrim:
		fs.emit(code.MakeAD(code.KPRIM, dst, e.Prim), line)
	case KindNum:
		idx, ok := fs.ConstNum(e.Num)
		if !ok {
			return false
		}
		fs.emit(code.MakeAD(code.KNUM, dst, idx), line)
	case KindStr:
		idx, ok := fs.ConstStr(e.Str)
		if !ok {
			return false
		}
		fs.emit(code.MakeAD(code.KSTR, dst, idx), line)
	case KindNonReloc:
		if e.Slot != dst {
			fs.emit(code.MakeAD(code.MOV, dst, uint16(e.Slot)), line)
		}
	case KindReloc:
		fs.Proto.Ins[e.PC] = fs.Proto.Ins[e.PC].SetA(dst)
	case KindJmp:
		// e.PC's JMP follows a skip-if-true test (see code.IsConditional):
		// firing the jump means the tested condition was false, and falling
		// through means it held. The fall-through path below reaches the
		// false tail first, so GoIfTrue inverts the test and moves e.PC into
		// TrueList: the jump then fires when e is true and reaches the true
		// tail, and falling through reaches the false tail.
		fs.GoIfTrue(e, line)
	}

	if e.HasJumps() {
		pFalse, pTrue := NoJump, NoJump
		skip := NoJump
		if fs.jmpsNeedFallThrough(e.TrueList) || fs.jmpsNeedFallThrough(e.FalseList) {
			if e.Kind != KindJmp {
				// A real fallthrough value was already written above; skip
				// the synthetic tail entirely when we reach it that way.
				skip = fs.EmitJump(line)
			}
			pFalse = fs.PC()
			fs.emit(code.MakeAD(code.KPRIM, dst, code.PrimFalse), line)
			overTrue := fs.EmitJump(line)
			pTrue = fs.PC()
			fs.emit(code.MakeAD(code.KPRIM, dst, code.PrimTrue), line)
			after := fs.PC()
			if skip != NoJump {
				fs.patchJmp(skip, after)
			}
			fs.patchJmp(overTrue, after)
		}
		final := fs.PC()
		fs.patchJmpsAndVals(e.FalseList, pFalse, dst, final)
		fs.patchJmpsAndVals(e.TrueList, pTrue, dst, final)
	}

	e.TrueList, e.FalseList = NoJump, NoJump
	e.Kind = KindNonReloc
	e.Slot = dst
	return true
}

// ToNextSlot frees e's current slot if it is a temporary top, reserves a
// fresh slot, and discharges e into it.
func (fs *FuncState) ToNextSlot(e *Expr, line int) bool {
	fs.FreeExpr(e)
	slot, ok := fs.ReserveSlot()
	if !ok {
		return false
	}
	return fs.ToSlot(e, slot, line)
}

// ToAnySlot discharges e into whatever slot is cheapest: if it is already
// non-reloc (sitting in some slot, with no pending jumps to reconcile) it
// is left alone; otherwise it behaves like ToNextSlot.
func (fs *FuncState) ToAnySlot(e *Expr, line int) bool {
	fs.Discharge(e)
	if e.Kind == KindNonReloc && !e.HasJumps() {
		return true
	}
	return fs.ToNextSlot(e, line)
}

// InlineUint8Num returns a constant pool index usable in an 8-bit operand
// position (the VN/NV instruction forms' C/B operand) if n's index fits
// in 8 bits and the pool has room; ok=false otherwise, meaning the caller
// must materialize n to a slot instead.
func (fs *FuncState) InlineUint8Num(n float64) (idx uint8, ok bool) {
	full, ok := fs.ConstNum(n)
	if !ok || full > 0xff {
		return 0, false
	}
	return uint8(full), true
}

// InlineUint16Num is InlineUint8Num's 16-bit-operand counterpart (EQVN et
// al.'s D operand).
func (fs *FuncState) InlineUint16Num(n float64) (idx uint16, ok bool) {
	return fs.ConstNum(n)
}

// InlineUint16Const is InlineUint16Num generalized to strings (EQVS's D
// operand).
func (fs *FuncState) InlineUint16Const(s string) (idx uint16, ok bool) {
	return fs.ConstStr(s)
}

// EmitNil emits a KNIL covering registers dst through last inclusive,
// used to pad adjust_assign's nil-filled extra variables in one
// instruction instead of one KPRIM per slot.
func (fs *FuncState) EmitNil(dst, last uint8, line int) int {
	return fs.emit(code.MakeAD(code.KNIL, dst, uint16(last)), line)
}
