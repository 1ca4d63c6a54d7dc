package emit

import "github.com/mna/luaj/lang/code"

// EmitLoadConstFunc emits a KFN loading the function prototype at constant
// index idx into a relocatable destination, for the enclosing function to
// patch once it knows where the resulting closure value should live.
func (fs *FuncState) EmitLoadConstFunc(idx uint16, line int) int {
	return fs.emit(code.MakeAD(code.KFN, code.NoSlot, idx), line)
}

// EmitCall emits CALL A B C for a callee sitting at base, having received
// nargs arguments and expecting nresults results (0 discards them, as a
// call-statement rewrites; the adjust_assign contract rewrites it again
// for a multi-return target).
func (fs *FuncState) EmitCall(base uint8, nargs, nresults int, line int) int {
	return fs.emit(code.MakeABC(code.CALL, base, uint8(nargs), uint8(nresults)), line)
}

// EmitReturnNone emits RET0 (no return values).
func (fs *FuncState) EmitReturnNone(line int) int {
	return fs.emit(code.MakeABC(code.RET0, 0, 0, 0), line)
}

// EmitReturnOne emits RET1 D, returning the single value in slot.
func (fs *FuncState) EmitReturnOne(slot uint8, line int) int {
	return fs.emit(code.MakeAD(code.RET1, 0, uint16(slot)), line)
}

// EmitReturn emits RET A D, returning the n contiguous values starting at
// base.
func (fs *FuncState) EmitReturn(base uint8, n int, line int) int {
	return fs.emit(code.MakeAD(code.RET, base, uint16(n)), line)
}
