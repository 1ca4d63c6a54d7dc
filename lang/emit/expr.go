// Package emit implements the register allocator, jump-list machinery and
// bytecode emission primitives the parser drives while compiling a chunk:
// expression descriptors (deferred-evaluation values that don't commit to
// a slot until something forces them to), the singly-linked jump lists
// threaded through JMP instructions, and the to_slot/to_next_slot family
// that turns a descriptor into committed bytecode.
package emit

import (
	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/token"
)

// Kind identifies which variant of the deferred-evaluation descriptor an
// Expr currently holds.
type Kind uint8

//nolint:revive
const (
	KindPrim     Kind = iota // a nil/false/true constant
	KindNum                  // a numeric constant
	KindStr                  // a string constant
	KindLocal                // a named local, already in its own slot
	KindCall                 // the result of a CALL instruction at PC
	KindNonReloc             // a value already sitting in Slot
	KindReloc                // an instruction at PC whose A operand (NoSlot) awaits a destination
	KindJmp                  // a conditional test's paired JMP at PC, not yet classified true/false
)

// Prim is the primitive tag carried by a KindPrim expression, matching the
// KPRIM instruction's D operand encoding (code.PrimTrue/PrimFalse/PrimNil).
type Prim = uint16

// NoJump is the empty jump-list sentinel (a FuncState-level marker, not a
// value ever written into an instruction's E field — see SentinelJumpE in
// package code for that).
const NoJump = -1

// Expr is the parser's deferred-evaluation expression descriptor: it never
// outlives the statement that produces and consumes it, and never owns a
// reference into the bytecode stream beyond a plain PC index.
type Expr struct {
	Kind Kind

	Prim Prim
	Num  float64
	Str  string
	Slot uint8
	PC   int

	// TrueList and FalseList are jump-list heads: the PCs of JMP
	// instructions taken when this expression evaluates true (respectively
	// false), or NoJump if empty.
	TrueList  int
	FalseList int

	Pos token.Pos
}

// NewExpr returns an empty-jump-list Expr of the given kind.
func NewExpr(kind Kind, pos token.Pos) Expr {
	return Expr{Kind: kind, TrueList: NoJump, FalseList: NoJump, Pos: pos}
}

// IsConstant reports whether e is a compile-time constant (prim, num or
// str), foldable without emitting any instruction.
func (e *Expr) IsConstant() bool {
	return e.Kind == KindPrim || e.Kind == KindNum || e.Kind == KindStr
}

// HasJumps reports whether e carries a non-empty true or false list.
func (e *Expr) HasJumps() bool { return e.TrueList != NoJump || e.FalseList != NoJump }

// IsMultiRet reports whether e is a call expression, the only kind whose
// arity can be adjusted after the fact (adjust_assign, call-statement
// return-count rewriting).
func (e *Expr) IsMultiRet() bool { return e.Kind == KindCall }

// Truthy reports whether a constant expression is truthy (everything but
// nil and false), and whether e is in fact foldable at all.
func (e *Expr) Truthy() (truthy, ok bool) {
	switch e.Kind {
	case KindPrim:
		return e.Prim != code.PrimNil && e.Prim != code.PrimFalse, true
	case KindNum, KindStr:
		return true, true
	default:
		return false, false
	}
}
