package parser

import (
	"github.com/mna/luaj/lang/emit"
	"github.com/mna/luaj/lang/token"
)

// parseBlock parses statements until a block-follow token is reached,
// treating `return` specially since nothing may follow it in a block.
func (p *parser) parseBlock() {
	for !p.blockFollow() {
		if p.tok == token.RETURN {
			p.parseReturnStmt()
			return
		}
		p.parseStatement()
	}
}

func (p *parser) parseStatement() {
	switch p.tok {
	case token.SEMI:
		p.advance()
	case token.LOCAL:
		p.parseLocalOrLocalFunctionStmt()
	case token.IF:
		p.parseIfStmt()
	case token.WHILE:
		p.parseWhileStmt()
	case token.DO:
		p.advance()
		p.fs.EnterBlock(false)
		p.parseBlock()
		p.fs.LeaveBlock()
		p.expect(token.END)
	case token.REPEAT:
		p.parseRepeatStmt()
	case token.BREAK:
		p.parseBreakStmt()
	default:
		p.parseExprOrAssignStmt()
	}
}

// emitImplicitReturn closes every function body with an unconditional
// RET0, matching an explicit `return` that fell off the end.
func (p *parser) emitImplicitReturn() {
	p.fs.EmitReturnNone(p.curLine())
}

// parseExprListKeepLast parses a comma-separated expression list, pushing
// every expression but the last into a fresh slot and leaving the last
// undischarged so the caller (adjustAssign) can inspect whether it is a
// multi-return call before committing it to a slot.
func (p *parser) parseExprListKeepLast() (last emit.Expr, n int) {
	line := p.curLine()
	e := p.parseExpr(0)
	n = 1
	for p.accept(token.COMMA) {
		if !p.fs.ToNextSlot(&e, line) {
			p.abortf(p.val.Pos, "too many registers")
		}
		e = p.parseExpr(0)
		n++
		line = p.curLine()
	}
	return e, n
}

// adjustAssign reconciles nvars target slots against nexprs parsed
// expressions, whose last is last (still undischarged): a multi-return
// call absorbs the shortfall (or surplus) by rewriting its own expected-
// result count; otherwise any shortfall is padded with nils in one KNIL.
func (p *parser) adjustAssign(nvars, nexprs int, last *emit.Expr, line int) {
	fs := p.fs
	extra := nvars - nexprs

	if nexprs > 0 && last.IsMultiRet() {
		extra++
		if extra < 0 {
			extra = 0
		}
		ins := fs.Ins(last.PC)
		fs.SetIns(last.PC, ins.SetC(uint8(extra)))
		fs.Discharge(last)
		for i := 1; i < extra; i++ {
			fs.ReserveSlot()
		}
		return
	}

	if nexprs > 0 {
		fs.ToNextSlot(last, line)
	}
	if extra > 0 {
		base, ok := fs.ReserveSlot()
		if !ok {
			p.abortf(p.val.Pos, "too many registers")
		}
		for i := 1; i < extra; i++ {
			fs.ReserveSlot()
		}
		fs.EmitNil(base, base+uint8(extra)-1, line)
	}
}

// parseLocalOrLocalFunctionStmt dispatches `local` to either the plain
// variable-declaration form or `local function`.
func (p *parser) parseLocalOrLocalFunctionStmt() {
	line := p.curLine()
	p.advance()
	if p.tok == token.FUNCTION {
		p.parseLocalFunctionStmt(line)
		return
	}
	p.parseLocalStmt(line)
}

// parseLocalStmt parses `name {, name} [= expr {, expr}]`, the `local`
// keyword already consumed. The RHS is fully evaluated before any name is
// declared, so a local never shadows itself on its own initializer
// (`local x = x` reads the outer x).
func (p *parser) parseLocalStmt(line int) {
	var names []string
	name, _ := p.expectIdent()
	names = append(names, name)
	for p.accept(token.COMMA) {
		name, _ = p.expectIdent()
		names = append(names, name)
	}

	nexprs := 0
	var last emit.Expr
	if p.accept(token.ASSIGN) {
		last, nexprs = p.parseExprListKeepLast()
	}
	p.adjustAssign(len(names), nexprs, &last, line)

	for _, n := range names {
		if _, ok := p.fs.DeclareLocal(n); !ok {
			p.abortf(p.val.Pos, "too many local variables in function")
		}
	}
	p.fs.ResetStackToLocals()
}

// parseLocalFunctionStmt parses `function name (...) ... end`, the
// `local` keyword already consumed. name is declared in the enclosing
// function before the body is parsed, but the body is compiled in its own
// FuncState, which resolves only its own locals: a reference to name
// inside the body is reported as an undefined name.
func (p *parser) parseLocalFunctionStmt(line int) {
	p.advance() // function
	pos := p.val.Pos
	name, _ := p.expectIdent()

	slot, ok := p.fs.DeclareLocal(name)
	if !ok {
		p.abortf(pos, "too many local variables in function")
	}
	fn := p.parseFunctionBody(pos, line, name)
	p.fs.ToSlot(&fn, slot, p.curLine())
}

// parseWhileStmt parses `while cond do block end`.
func (p *parser) parseWhileStmt() {
	p.advance()
	fs := p.fs
	start := fs.PC()

	cond := p.parseExpr(0)
	line := p.curLine()
	fs.GoIfFalse(&cond, line)
	condExit := cond.FalseList
	if cond.TrueList != emit.NoJump {
		fs.PatchJumpsTo(cond.TrueList, fs.PC())
	}

	p.expect(token.DO)
	fs.EnterBlock(true)
	p.parseBlock()
	scope := fs.LeaveBlock()
	p.expect(token.END)

	back := fs.EmitJump(p.curLine())
	if !fs.PatchJump(back, start) {
		p.abortf(p.val.Pos, "control structure too long")
	}

	after := fs.PC()
	fs.PatchJumpsTo(condExit, after)
	fs.PatchBreaks(scope, after)
}

// parseRepeatStmt parses `repeat block until cond`, keeping the body's
// locals in scope while cond is parsed.
func (p *parser) parseRepeatStmt() {
	p.advance()
	fs := p.fs
	start := fs.PC()

	fs.EnterBlock(true)
	p.parseBlock()
	p.expect(token.UNTIL)

	cond := p.parseExpr(0)
	line := p.curLine()
	fs.GoIfFalse(&cond, line)
	fs.PatchJumpsTo(cond.FalseList, start)

	scope := fs.LeaveBlock()
	after := fs.PC()
	if cond.TrueList != emit.NoJump {
		fs.PatchJumpsTo(cond.TrueList, after)
	}
	fs.PatchBreaks(scope, after)
}

// parseIfStmt parses `if cond then block {elseif cond then block} [else
// block] end`.
func (p *parser) parseIfStmt() {
	fs := p.fs
	exitJumps := emit.NoJump

	for {
		p.advance() // if / elseif
		cond := p.parseExpr(0)
		line := p.curLine()
		fs.GoIfFalse(&cond, line)
		if cond.TrueList != emit.NoJump {
			fs.PatchJumpsTo(cond.TrueList, fs.PC())
		}
		p.expect(token.THEN)

		fs.EnterBlock(false)
		p.parseBlock()
		fs.LeaveBlock()

		if p.tok == token.ELSEIF || p.tok == token.ELSE {
			jmp := fs.EmitJump(p.curLine())
			exitJumps = fs.MergeJumps(exitJumps, jmp)
		}
		fs.PatchJumpsTo(cond.FalseList, fs.PC())

		if p.tok != token.ELSEIF {
			break
		}
	}

	if p.tok == token.ELSE {
		p.advance()
		fs.EnterBlock(false)
		p.parseBlock()
		fs.LeaveBlock()
	}
	p.expect(token.END)

	after := fs.PC()
	fs.PatchJumpsTo(exitJumps, after)
}

// parseBreakStmt parses `break`, recording its jump against the innermost
// enclosing loop.
func (p *parser) parseBreakStmt() {
	pos := p.val.Pos
	p.advance()
	scope := p.fs.EnclosingLoop()
	if scope == nil {
		p.abort(pos, "break outside a loop")
	}
	pc := p.fs.EmitJump(p.curLine())
	p.fs.AddBreak(scope, pc)
}

// parseReturnStmt parses `return [exprlist] [;]`. Unlike local/assignment
// targets, a trailing multi-return call is never folded into the count:
// every return expression is forced into its own contiguous slot.
func (p *parser) parseReturnStmt() {
	line := p.curLine()
	p.advance()

	if p.blockFollow() || p.tok == token.SEMI {
		p.fs.EmitReturnNone(line)
		p.accept(token.SEMI)
		return
	}

	fs := p.fs
	first := fs.StackTop()
	e := p.parseExpr(0)
	n := 1
	for p.accept(token.COMMA) {
		if !fs.ToNextSlot(&e, line) {
			p.abortf(p.val.Pos, "too many registers")
		}
		e = p.parseExpr(0)
		n++
	}

	if n == 1 {
		fs.ToAnySlot(&e, line)
		fs.EmitReturnOne(e.Slot, line)
	} else {
		fs.ToNextSlot(&e, line)
		fs.EmitReturn(uint8(first), n, line)
	}
	p.accept(token.SEMI)
}

// parseExprOrAssignStmt parses a statement that starts with an expression:
// either a call used as a statement, or the first target of an assignment.
func (p *parser) parseExprOrAssignStmt() {
	pos := p.val.Pos
	line := p.curLine()
	e := p.parseSuffixedExpr()

	if p.tok == token.ASSIGN || p.tok == token.COMMA {
		if e.Kind != emit.KindLocal {
			p.abort(pos, "cannot assign to this expression")
		}
		p.parseAssignStmt(e, pos, line)
		return
	}

	if e.Kind != emit.KindCall {
		p.abort(pos, "syntax error (expected statement)")
	}
	ins := p.fs.Ins(e.PC)
	p.fs.SetIns(e.PC, ins.SetC(0))
	p.fs.ResetStackToLocals()
}

// parseAssignStmt parses `lhs {, lhs} = expr {, expr}` given the already-
// parsed first target.
func (p *parser) parseAssignStmt(first emit.Expr, pos token.Pos, line int) {
	fs := p.fs
	lhs := []uint8{first.Slot}

	for p.accept(token.COMMA) {
		tpos := p.val.Pos
		t := p.parseSuffixedExpr()
		if t.Kind != emit.KindLocal {
			p.abort(tpos, "cannot assign to this expression")
		}
		lhs = append(lhs, t.Slot)
	}

	p.expect(token.ASSIGN)
	firstSlot := fs.StackTop()
	last, nexprs := p.parseExprListKeepLast()
	p.adjustAssign(len(lhs), nexprs, &last, line)

	for i := len(lhs) - 1; i >= 0; i-- {
		src := emit.NewExpr(emit.KindNonReloc, pos)
		src.Slot = uint8(firstSlot) + uint8(i)
		fs.ToSlot(&src, lhs[i], line)
	}
	fs.ResetStackToLocals()
}
