// Package parser implements the single-pass, register-targeting Pratt
// parser: it drives lang/emit directly while recognizing the language's
// grammar, so statements and expressions are translated straight to
// bytecode as they are recognized instead of first building an AST.
//
// A syntax error aborts the whole parse immediately: the compiler has no
// error-recovery/resynchronization mode. Parse panics internally with a
// *Error and recovers it at the top, mirroring the protected-call unwind
// the embedding API exposes to callers as a single syntax-error status
// plus one message.
package parser

import (
	"fmt"

	"github.com/mna/luaj/lang/emit"
	"github.com/mna/luaj/lang/lexer"
	"github.com/mna/luaj/lang/reader"
	"github.com/mna/luaj/lang/token"
	"github.com/mna/luaj/lang/value"
)

// Error is a syntax error raised during compilation, carrying the chunk
// name and source position the embedding API's error taxonomy requires
// (chunk:line:col plus a descriptive message).
type Error struct {
	ChunkName string
	Pos       token.Pos
	Msg       string
}

func (e *Error) Error() string {
	if e.ChunkName == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.ChunkName, e.Pos, e.Msg)
}

// parser holds the single-pass compiler's transient state: the lexer
// producing tokens on demand, the current (innermost) function scope, and
// the one-token lookahead.
type parser struct {
	lex       *lexer.Lexer
	chunkName string
	heap      *value.Heap

	tok token.Token
	val token.Value

	fs *emit.FuncState
}

// Parse compiles a single chunk read from r into a top-level function
// prototype allocated on heap. On a syntax error it returns a nil
// prototype and a non-nil *Error.
func Parse(r reader.Reader, heap *value.Heap, chunkName string) (proto *value.FuncProto, err error) {
	_, proto, err = ParseValue(r, heap, chunkName)
	return proto, err
}

// ParseValue is Parse's counterpart for callers that need the heap Value
// referencing the resulting prototype, not just the *FuncProto itself —
// the embedding API's load pushes exactly this Value onto the stack.
func ParseValue(r reader.Reader, heap *value.Heap, chunkName string) (protoVal value.Value, proto *value.FuncProto, err error) {
	p := &parser{
		lex:       lexer.New(r, chunkName),
		chunkName: chunkName,
		heap:      heap,
	}

	defer func() {
		if rec := recover(); rec != nil {
			se, ok := rec.(*Error)
			if !ok {
				panic(rec)
			}
			protoVal, proto, err = 0, nil, se
		}
	}()

	p.advance()

	fs, v := emit.NewFuncState(heap, nil, chunkName, p.curLine())
	p.fs = fs
	p.parseBlock()
	p.emitImplicitReturn()
	fs.Proto.EndLine = p.curLine()
	p.expect(token.EOF)
	return v, fs.Proto, nil
}

// advance fetches the next token into tok/val, escalating a lexer-level
// error (illegal character, malformed number, unterminated string/comment)
// into an aborting syntax error the first time it is observed.
func (p *parser) advance() {
	p.tok = p.lex.Scan(&p.val)
	if errs := p.lex.Errors(); errs.Len() > 0 {
		all := errs.All()
		last := all[len(all)-1]
		p.abort(last.Pos, last.Msg)
	}
}

func (p *parser) curLine() int {
	line, _ := p.val.Pos.LineCol()
	return line
}

func (p *parser) abort(pos token.Pos, msg string) {
	panic(&Error{ChunkName: p.chunkName, Pos: pos, Msg: msg})
}

func (p *parser) abortf(pos token.Pos, format string, args ...any) {
	p.abort(pos, fmt.Sprintf(format, args...))
}

// expect consumes the current token if it matches tok, otherwise aborts
// with "expected X, found Y". Returns the position of the consumed token.
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.val.Pos
	if p.tok != tok {
		p.errorExpected(tok.GoString())
	}
	p.advance()
	return pos
}

// expectIdent consumes an IDENT token and returns its name, or aborts with
// "expected identifier, found ...".
func (p *parser) expectIdent() (string, token.Pos) {
	if p.tok != token.IDENT {
		p.errorExpected("identifier")
	}
	name, pos := p.val.String, p.val.Pos
	p.advance()
	return name, pos
}

func (p *parser) errorExpected(what string) {
	msg := "expected " + what
	if lit := p.tok.Literal(p.val); lit != "" {
		msg += ", found " + lit
	} else {
		msg += ", found " + p.tok.GoString()
	}
	p.abort(p.val.Pos, msg)
}

// accept consumes and reports true if the current token matches tok,
// otherwise leaves the lookahead untouched and reports false.
func (p *parser) accept(tok token.Token) bool {
	if p.tok == tok {
		p.advance()
		return true
	}
	return false
}

// blockFollow reports whether the current token can only appear right
// after a block: the set that terminates parseBlock's statement loop.
func (p *parser) blockFollow() bool {
	switch p.tok {
	case token.EOF, token.END, token.ELSE, token.ELSEIF, token.UNTIL:
		return true
	default:
		return false
	}
}
