package parser

import (
	"golang.org/x/exp/slices"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/emit"
	"github.com/mna/luaj/lang/token"
)

// opPriority holds a binary operator's left and right binding power for
// precedence-climbing; right < left for a right-associative operator
// (concat, exponentiation), making the recursive call on the right operand
// accept operators of the same priority again.
type opPriority struct{ left, right int }

var binPriority = map[token.Token]opPriority{
	token.OR:      {1, 1},
	token.AND:     {2, 2},
	token.LT:      {3, 3},
	token.LE:      {3, 3},
	token.GT:      {3, 3},
	token.GE:      {3, 3},
	token.EQ:      {3, 3},
	token.NEQ:     {3, 3},
	token.CONCAT:  {5, 4}, // right-associative
	token.PLUS:    {6, 6},
	token.MINUS:   {6, 6},
	token.STAR:    {7, 7},
	token.SLASH:   {7, 7},
	token.PERCENT: {7, 7},
	token.CARET:   {10, 9}, // right-associative
}

// unaryPriority is the binding power unary `not`/`-` parse their operand
// at: tighter than every binary operator except exponentiation, so
// `-x^2` parses as `-(x^2)`.
const unaryPriority = 8

// parseExpr parses an expression, climbing over binary operators whose
// left binding power exceeds limit.
func (p *parser) parseExpr(limit int) emit.Expr {
	var left emit.Expr
	if p.tok == token.NOT || p.tok == token.MINUS {
		op := p.tok
		line := p.curLine()
		p.advance()
		operand := p.parseExpr(unaryPriority)
		left = p.fs.EmitUnary(op, &operand, line)
	} else {
		left = p.parseSimpleExpr()
	}

	for {
		prio, ok := binPriority[p.tok]
		if !ok || prio.left <= limit {
			break
		}
		op := p.tok
		line := p.curLine()
		p.advance()

		switch op {
		case token.AND:
			falseList := p.fs.EmitAndLeft(&left, line)
			right := p.parseExpr(prio.right)
			left = p.fs.EmitAnd(falseList, &right)
		case token.OR:
			trueList := p.fs.EmitOrLeft(&left, line)
			right := p.parseExpr(prio.right)
			left = p.fs.EmitOr(trueList, &right)
		default:
			right := p.parseExpr(prio.right)
			left = p.fs.EmitBinary(op, &left, &right, line)
		}
	}
	return left
}

// parseSimpleExpr parses a literal, function literal or suffixed
// expression: the operand grammar one level below binary/unary operators.
func (p *parser) parseSimpleExpr() emit.Expr {
	pos := p.val.Pos
	switch p.tok {
	case token.NIL:
		p.advance()
		e := emit.NewExpr(emit.KindPrim, pos)
		e.Prim = code.PrimNil
		return e
	case token.TRUE:
		p.advance()
		e := emit.NewExpr(emit.KindPrim, pos)
		e.Prim = code.PrimTrue
		return e
	case token.FALSE:
		p.advance()
		e := emit.NewExpr(emit.KindPrim, pos)
		e.Prim = code.PrimFalse
		return e
	case token.NUMBER:
		n := p.val.Num
		p.advance()
		e := emit.NewExpr(emit.KindNum, pos)
		e.Num = n
		return e
	case token.STRING:
		s := p.val.String
		p.advance()
		e := emit.NewExpr(emit.KindStr, pos)
		e.Str = s
		return e
	case token.FUNCTION:
		p.advance()
		return p.parseFunctionBody(pos, p.curLine(), "")
	default:
		return p.parseSuffixedExpr()
	}
}

// parsePrimaryExpr parses a name (resolved against the current function's
// locals) or a parenthesized expression, truncated to a single value.
func (p *parser) parsePrimaryExpr() emit.Expr {
	switch p.tok {
	case token.IDENT:
		name, npos := p.expectIdent()
		slot, ok := p.fs.ResolveLocal(name)
		if !ok {
			p.abortf(npos, "undefined name %q", name)
		}
		e := emit.NewExpr(emit.KindLocal, npos)
		e.Slot = slot
		return e
	case token.LPAREN:
		p.advance()
		e := p.parseExpr(0)
		line := p.curLine()
		p.expect(token.RPAREN)
		p.fs.ToAnySlot(&e, line)
		return e
	default:
		p.errorExpected("expression")
		panic("unreachable")
	}
}

// parseSuffixedExpr parses a primary expression followed by zero or more
// call suffixes, the only suffix the grammar allows.
func (p *parser) parseSuffixedExpr() emit.Expr {
	pos := p.val.Pos
	e := p.parsePrimaryExpr()
	for p.tok == token.LPAREN {
		e = p.parseCall(e, pos)
	}
	return e
}

// parseCall parses a parenthesized argument list applied to fn, emitting
// CALL with the default expected-return count of 1; callers that need a
// different count (a call statement, an adjust_assign target) rewrite the
// instruction's C operand afterward.
func (p *parser) parseCall(fn emit.Expr, pos token.Pos) emit.Expr {
	line := p.curLine()
	p.fs.ToNextSlot(&fn, line)
	base := fn.Slot

	p.expect(token.LPAREN)
	nargs := 0
	if p.tok != token.RPAREN {
		for {
			arg := p.parseExpr(0)
			if !p.fs.ToNextSlot(&arg, line) {
				p.abortf(pos, "too many registers")
			}
			nargs++
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)

	pc := p.fs.EmitCall(base, nargs, 1, line)
	out := emit.NewExpr(emit.KindCall, pos)
	out.PC = pc
	return out
}

// parseFunctionBody parses a parameter list and block for a function
// literal (named, for `local function`, or anonymous), freezing a new
// function prototype and emitting a KFN loading it as a constant of the
// enclosing function. name is empty for an anonymous function literal.
func (p *parser) parseFunctionBody(pos token.Pos, startLine int, name string) emit.Expr {
	parent := p.fs
	child, protoVal := emit.NewFuncState(p.heap, parent, p.chunkName, startLine)
	child.Proto.Name = name
	p.fs = child

	p.expect(token.LPAREN)
	nparams := 0
	var seen []string
	if p.tok != token.RPAREN {
		for {
			pname, ppos := p.expectIdent()
			if slices.Contains(seen, pname) {
				p.abortf(ppos, "duplicate parameter %q", pname)
			}
			seen = append(seen, pname)
			if _, ok := child.DeclareLocal(pname); !ok {
				p.abortf(ppos, "too many parameters")
			}
			nparams++
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)
	child.Proto.NumParams = nparams

	p.parseBlock()
	p.emitImplicitReturn()
	child.Proto.EndLine = p.curLine()
	p.expect(token.END)

	p.fs = parent
	idx, ok := parent.ConstFunc(protoVal)
	if !ok {
		p.abortf(pos, "too many constants in function")
	}
	out := emit.NewExpr(emit.KindReloc, pos)
	out.PC = parent.EmitLoadConstFunc(idx, p.curLine())
	return out
}
