package emit

import (
	"math"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/token"
)

// invertJumpCond flips the polarity of the conditional test preceding a
// KindJmp expression's own JMP at e.PC, moving its jump from meaning
// "condition false" to "condition true" (or back). IST/ISF/ISTC/ISFC and
// every EQ/ordered-comparison opcode has an entry in code.InvertOp for
// exactly this purpose.
func (fs *FuncState) invertJumpCond(pc int) {
	prev := fs.Proto.Ins[pc-1]
	fs.Proto.Ins[pc-1] = prev.SetOp(code.InvertOp(prev.Op()))
}

// GoIfTrue arranges for e's jump to fire exactly when e is true, merging it
// into e.TrueList; what was already in e.TrueList/e.FalseList is preserved.
// Non-KindJmp expressions are first turned into one via a truth test.
//
// e.PC is, by construction (see emitCompare, toCond, EmitAnd, EmitOr),
// always the head of e.FalseList: the one physical test instruction whose
// outcome tracks this expression's own value, as opposed to the other
// nodes already in the list, which are earlier short-circuit exits whose
// polarity is fixed regardless of what e is used for here. Only that head
// node needs inverting and relocating; the rest of the chain is untouched.
func (fs *FuncState) GoIfTrue(e *Expr, line int) {
	if e.Kind != KindJmp {
		fs.toCond(e, line)
	}
	rest := fs.followJump(e.PC)
	fs.invertJumpCond(e.PC)
	fs.detachJmp(e.PC)
	e.FalseList = rest
	e.TrueList = fs.appendJmp(e.TrueList, e.PC)
}

// GoIfFalse is GoIfTrue's mirror for contexts wanting e's jump to fire on
// false: every KindJmp already has its head node at that polarity (see
// toCond), so this only needs to materialize non-comparison expressions.
func (fs *FuncState) GoIfFalse(e *Expr, line int) {
	if e.Kind != KindJmp {
		fs.toCond(e, line)
	}
}

// detachJmp resets pc's own JMP to the unpatched sentinel, severing it from
// whatever list it used to be threaded into before it is re-merged
// elsewhere.
func (fs *FuncState) detachJmp(pc int) {
	fs.Proto.Ins[pc] = fs.Proto.Ins[pc].SetE(code.SentinelJumpE)
}

// toCond turns any expression — constant or not — into a KindJmp by
// materializing it to a register and testing its runtime truthiness with
// IST (skip-if-true) followed by a fresh JMP, so the rest of the jump-list
// machinery (GoIfTrue/GoIfFalse, which invert the test in place) can
// always rely on a real preceding instruction to invert. A compile-time
// constant is still cheap here (ToAnySlot on a KindPrim/KindNum/KindStr is
// a single KPRIM/KNUM/KSTR), so there is no need for a separate
// no-instruction fold that would leave nothing for GoIfTrue to invert.
func (fs *FuncState) toCond(e *Expr, line int) {
	fs.ToAnySlot(e, line)
	slot := e.Slot
	fs.emit(code.MakeAD(code.IST, 0, uint16(slot)), line)
	pc := fs.EmitJump(line)
	pos := e.Pos
	fs.FreeSlot(slot)
	*e = NewExpr(KindJmp, pos)
	e.PC = pc
	e.FalseList = pc
}

// EmitAndLeft is called once the left operand of `a and b` has been
// parsed, before the right operand is parsed: `and` short-circuits (skips
// evaluating b) exactly when a is false, which is every KindJmp's default
// polarity already, so this only needs to materialize non-comparison
// expressions and collect the exit list; the right operand is only
// reached by falling through, i.e. when a was true.
func (fs *FuncState) EmitAndLeft(left *Expr, line int) int {
	fs.GoIfFalse(left, line)
	falseList := left.FalseList
	fs.FreeExpr(left)
	return falseList
}

// EmitAnd folds the left operand's deferred false-exits (from
// EmitAndLeft) into the right operand, producing the `and` expression.
// right.FalseList (headed by right.PC, see GoIfTrue) is kept as the head
// of the merged list so that invariant survives into further chaining.
func (fs *FuncState) EmitAnd(leftFalse int, right *Expr) Expr {
	right.FalseList = fs.appendJmp(leftFalse, right.FalseList)
	return *right
}

// EmitOrLeft is EmitAndLeft's mirror for `a or b`: `or` short-circuits
// exactly when a is true, the opposite of a KindJmp's default polarity,
// so the left operand's test needs inverting (GoIfTrue) before its exit
// list is collected.
func (fs *FuncState) EmitOrLeft(left *Expr, line int) int {
	fs.GoIfTrue(left, line)
	trueList := left.TrueList
	fs.FreeExpr(left)
	return trueList
}

// EmitOr folds the left operand's deferred true-exits (from EmitOrLeft)
// into the right operand, producing the `or` expression. Unlike
// EmitAndLeft's false list, right's FalseList here (if right is itself a
// bare comparison) still has right.PC as its head, preserved unchanged:
// EmitOr only touches TrueList.
func (fs *FuncState) EmitOr(leftTrue int, right *Expr) Expr {
	right.TrueList = fs.appendJmp(leftTrue, right.TrueList)
	return *right
}

// EmitUnary emits NEG or NOT, folding constants at compile time where
// possible and, for `not` applied to a KindJmp expression, inverting its
// head test in place (GoIfTrue) and swapping its true/false lists instead
// of emitting any instruction at all.
func (fs *FuncState) EmitUnary(op token.Token, e *Expr, line int) Expr {
	switch op {
	case token.NOT:
		if truthy, ok := e.Truthy(); ok {
			out := NewExpr(KindPrim, e.Pos)
			out.Prim = boolPrim(!truthy)
			return out
		}
		if e.Kind == KindJmp {
			fs.GoIfTrue(e, line)
			e.TrueList, e.FalseList = e.FalseList, e.TrueList
			return *e
		}
		fs.ToAnySlot(e, line)
		out := NewExpr(KindReloc, e.Pos)
		out.PC = fs.emit(code.MakeAD(code.NOT, code.NoSlot, uint16(e.Slot)), line)
		fs.FreeExpr(e)
		return out
	case token.MINUS:
		if e.Kind == KindNum {
			e.Num = -e.Num
			return *e
		}
		fs.ToAnySlot(e, line)
		out := NewExpr(KindReloc, e.Pos)
		out.PC = fs.emit(code.MakeAD(code.NEG, code.NoSlot, uint16(e.Slot)), line)
		fs.FreeExpr(e)
		return out
	default:
		panic("emit: unsupported unary operator " + op.GoString())
	}
}

func boolPrim(b bool) Prim {
	if b {
		return code.PrimTrue
	}
	return code.PrimFalse
}

// arithOp pairs a source operator with the VV/VN/NV opcode triplet used to
// implement it, when such a triplet exists (POW and CONCAT only have a VV
// form: the spec does not special-case a constant operand for them).
type arithOp struct {
	vv, vn, nv  code.Op
	commutative bool // true: nv unused, a constant left operand swaps into the vn form instead
}

var arithOps = map[token.Token]arithOp{
	token.PLUS:    {vv: code.ADDVV, vn: code.ADDVN, commutative: true},
	token.MINUS:   {vv: code.SUBVV, vn: code.SUBVN, nv: code.SUBNV},
	token.STAR:    {vv: code.MULVV, vn: code.MULVN, commutative: true},
	token.SLASH:   {vv: code.DIVVV, vn: code.DIVVN, nv: code.DIVNV},
	token.PERCENT: {vv: code.MODVV, vn: code.MODVN, nv: code.MODNV},
}

var compareOps = map[token.Token]struct{ vv, vn code.Op }{
	token.EQ:  {code.EQVV, code.EQVN},
	token.NEQ: {code.NEQVV, code.NEQVN},
	token.LT:  {code.LTVV, code.LTVN},
	token.LE:  {code.LEVV, code.LEVN},
	token.GT:  {code.GTVV, code.GTVN},
	token.GE:  {code.GEVV, code.GEVN},
}

// EmitBinary emits the instruction(s) implementing a binary operator over
// two already-parsed operands, folding constant arithmetic at compile
// time and otherwise choosing the VV/VN/NV instruction form that avoids
// materializing a constant operand into a register when the constant pool
// slot fits the 8-bit C operand.
func (fs *FuncState) EmitBinary(op token.Token, left, right *Expr, line int) Expr {
	switch op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		if folded, ok := foldArith(op, left, right); ok {
			return folded
		}
		return fs.emitArith(arithOps[op], left, right, line)
	case token.CARET:
		if folded, ok := foldArith(op, left, right); ok {
			return folded
		}
		return fs.emitSimpleVV(code.POW, left, right, line)
	case token.CONCAT:
		return fs.emitConcat(left, right, line)
	case token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		return fs.emitCompare(op, left, right, line)
	default:
		panic("emit: unsupported binary operator " + op.GoString())
	}
}

func foldArith(op token.Token, left, right *Expr) (Expr, bool) {
	if left.Kind != KindNum || right.Kind != KindNum {
		return Expr{}, false
	}
	var n float64
	switch op {
	case token.PLUS:
		n = left.Num + right.Num
	case token.MINUS:
		n = left.Num - right.Num
	case token.STAR:
		n = left.Num * right.Num
	case token.SLASH:
		n = left.Num / right.Num
	case token.PERCENT:
		n = left.Num - floorDiv(left.Num, right.Num)*right.Num
	case token.CARET:
		n = math.Pow(left.Num, right.Num)
	}
	out := NewExpr(KindNum, left.Pos)
	out.Num = n
	return out, true
}

func floorDiv(a, b float64) float64 {
	q := a / b
	return floorf(q)
}

// emitArith picks the cheapest instruction form for a (possibly
// commutative) arithmetic operator: VN/NV when one side is a constant
// number that fits the pool's 8-bit operand slot, VV otherwise.
func (fs *FuncState) emitArith(ops arithOp, left, right *Expr, line int) Expr {
	if right.Kind == KindNum {
		if idx, ok := fs.InlineUint8Num(right.Num); ok {
			fs.ToAnySlot(left, line)
			out := NewExpr(KindReloc, left.Pos)
			out.PC = fs.emit(code.MakeABC(ops.vn, code.NoSlot, left.Slot, idx), line)
			fs.FreeExpr(left)
			return out
		}
	}
	if left.Kind == KindNum {
		if idx, ok := fs.InlineUint8Num(left.Num); ok {
			fs.ToAnySlot(right, line)
			out := NewExpr(KindReloc, right.Pos)
			if ops.commutative {
				out.PC = fs.emit(code.MakeABC(ops.vn, code.NoSlot, right.Slot, idx), line)
			} else {
				out.PC = fs.emit(code.MakeABC(ops.nv, code.NoSlot, idx, right.Slot), line)
			}
			fs.FreeExpr(right)
			return out
		}
	}
	return fs.emitSimpleVV(ops.vv, left, right, line)
}

func (fs *FuncState) emitSimpleVV(op code.Op, left, right *Expr, line int) Expr {
	fs.ToAnySlot(left, line)
	fs.ToAnySlot(right, line)
	out := NewExpr(KindReloc, left.Pos)
	out.PC = fs.emit(code.MakeABC(op, code.NoSlot, left.Slot, right.Slot), line)
	fs.FreeExpr(right)
	fs.FreeExpr(left)
	return out
}

func (fs *FuncState) emitConcat(left, right *Expr, line int) Expr {
	fs.ToAnySlot(left, line)
	fs.ToAnySlot(right, line)
	out := NewExpr(KindReloc, left.Pos)
	out.PC = fs.emit(code.MakeABC(code.CONCAT, code.NoSlot, left.Slot, right.Slot), line)
	fs.FreeExpr(right)
	fs.FreeExpr(left)
	return out
}

// foldCompare folds `==`/`~=` over any two closed constants (prim, num or
// str, compared by kind then value) and `<`/`<=`/`>`/`>=` over two numeric
// constants, mirroring foldArith's compile-time evaluation so neither a
// comparison opcode nor its paired JMP is ever emitted for e.g. `1 == 1` or
// `3 < 4`.
func foldCompare(op token.Token, left, right *Expr) (Expr, bool) {
	switch op {
	case token.EQ, token.NEQ:
		if !left.IsConstant() || !right.IsConstant() {
			return Expr{}, false
		}
		eq := left.Kind == right.Kind
		if eq {
			switch left.Kind {
			case KindPrim:
				eq = left.Prim == right.Prim
			case KindNum:
				eq = left.Num == right.Num
			case KindStr:
				eq = left.Str == right.Str
			}
		}
		if op == token.NEQ {
			eq = !eq
		}
		out := NewExpr(KindPrim, left.Pos)
		out.Prim = boolPrim(eq)
		return out, true
	case token.LT, token.LE, token.GT, token.GE:
		if left.Kind != KindNum || right.Kind != KindNum {
			return Expr{}, false
		}
		var result bool
		switch op {
		case token.LT:
			result = left.Num < right.Num
		case token.LE:
			result = left.Num <= right.Num
		case token.GT:
			result = left.Num > right.Num
		default: // GE
			result = left.Num >= right.Num
		}
		out := NewExpr(KindPrim, left.Pos)
		out.Prim = boolPrim(result)
		return out, true
	default:
		return Expr{}, false
	}
}

// emitCompare emits a conditional test plus its paired (unpatched) JMP,
// producing a KindJmp expression whose FalseList holds that jump (see
// code.IsConditional: the jump fires when the tested condition does not
// hold). Every comparison has a VV and a VN (var-op-const) form but no
// NV form, so a constant-on-the-left shape ("5 < x") is rewritten by
// swapping operands and flipping the relation (LT<->GT, LE<->GE) into the
// equivalent var-op-const shape ("x > 5") instead of leaving it stuck in
// the constant-pool-less VV path.
func (fs *FuncState) emitCompare(op token.Token, left, right *Expr, line int) Expr {
	if folded, ok := foldCompare(op, left, right); ok {
		return folded
	}
	if left.Kind == KindNum && right.Kind != KindNum {
		left, right = right, left
		op = flipRelation(op)
	}
	ops := compareOps[op]

	if right.Kind == KindNum {
		if idx, ok := fs.InlineUint16Num(right.Num); ok {
			fs.ToAnySlot(left, line)
			fs.emit(code.MakeAD(ops.vn, left.Slot, idx), line)
			fs.FreeExpr(left)
			return fs.newJmpExpr(left.Pos, line)
		}
	}
	if op == token.EQ || op == token.NEQ {
		if right.Kind == KindStr {
			if idx, ok := fs.InlineUint16Const(right.Str); ok {
				vvOp := code.EQVS
				if op == token.NEQ {
					vvOp = code.NEQVS
				}
				fs.ToAnySlot(left, line)
				fs.emit(code.MakeAD(vvOp, left.Slot, idx), line)
				fs.FreeExpr(left)
				return fs.newJmpExpr(left.Pos, line)
			}
		}
		if prim, ok := primOf(right); ok {
			vvOp := code.EQVP
			if op == token.NEQ {
				vvOp = code.NEQVP
			}
			fs.ToAnySlot(left, line)
			fs.emit(code.MakeAD(vvOp, left.Slot, prim), line)
			fs.FreeExpr(left)
			return fs.newJmpExpr(left.Pos, line)
		}
	}

	fs.ToAnySlot(left, line)
	fs.ToAnySlot(right, line)
	fs.emit(code.MakeAD(ops.vv, left.Slot, uint16(right.Slot)), line)
	fs.FreeExpr(right)
	fs.FreeExpr(left)
	return fs.newJmpExpr(left.Pos, line)
}

// flipRelation returns the relational operator that holds when its
// operands are swapped (a < b  <=>  b > a).
func flipRelation(op token.Token) token.Token {
	switch op {
	case token.LT:
		return token.GT
	case token.LE:
		return token.GE
	case token.GT:
		return token.LT
	case token.GE:
		return token.LE
	default:
		return op // EQ, NEQ are symmetric
	}
}

func (fs *FuncState) newJmpExpr(pos token.Pos, line int) Expr {
	e := NewExpr(KindJmp, pos)
	e.PC = fs.EmitJump(line)
	e.FalseList = e.PC
	return e
}

func primOf(e *Expr) (uint16, bool) {
	if e.Kind == KindPrim {
		return e.Prim, true
	}
	return 0, false
}

func floorf(f float64) float64 {
	i := float64(int64(f))
	if i > f {
		i--
	}
	return i
}
