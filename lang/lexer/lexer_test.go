package lexer

import (
	"io"
	"testing"

	"github.com/mna/luaj/lang/reader"
	"github.com/mna/luaj/lang/token"
	"github.com/stretchr/testify/require"
)

// funcReader adapts a plain function into a reader.Reader, used here to
// feed the lexer arbitrary chunk boundaries without going through an
// io.Reader.
type funcReader func() ([]byte, error)

func (f funcReader) Next() ([]byte, error) { return f() }

func scanAll(t *testing.T, src string) ([]token.Token, []token.Value, *ErrorList) {
	t.Helper()
	l := New(reader.NewBytes([]byte(src)), "test")
	var toks []token.Token
	var vals []token.Value
	for {
		var v token.Value
		tok := l.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	return toks, vals, l.Errors()
}

func TestScanIdentsAndKeywords(t *testing.T) {
	toks, vals, errs := scanAll(t, "local x = foo")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{token.LOCAL, token.IDENT, token.ASSIGN, token.IDENT, token.EOF}, toks)
	require.Equal(t, "foo", vals[3].String)
}

func TestScanNumbers(t *testing.T) {
	toks, vals, errs := scanAll(t, "1 1.5 1e10 0x1A 0x1Ap4 .5")
	require.Equal(t, 0, errs.Len())
	for _, tok := range toks[:len(toks)-1] {
		require.Equal(t, token.NUMBER, tok)
	}
	require.Equal(t, float64(1), vals[0].Num)
	require.Equal(t, 1.5, vals[1].Num)
	require.Equal(t, 1e10, vals[2].Num)
	require.Equal(t, float64(0x1A), vals[3].Num)
	require.Equal(t, 0.5, vals[5].Num)
}

func TestScanMalformedNumber(t *testing.T) {
	_, _, errs := scanAll(t, "1x")
	require.Equal(t, 1, errs.Len())
}

func TestScanShortStrings(t *testing.T) {
	toks, vals, errs := scanAll(t, `"hi\n" 'world'`)
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{token.STRING, token.STRING, token.EOF}, toks)
	require.Equal(t, "hi\n", vals[0].String)
	require.Equal(t, "world", vals[1].String)
}

func TestScanUnterminatedString(t *testing.T) {
	_, _, errs := scanAll(t, `"hi`)
	require.Equal(t, 1, errs.Len())
}

func TestScanEscapes(t *testing.T) {
	_, vals, errs := scanAll(t, `"\65\x"`)
	require.Equal(t, 1, errs.Len(), "\\x is not a valid escape")
	require.Equal(t, "A", vals[0].String[:1])
}

func TestScanLongString(t *testing.T) {
	toks, vals, errs := scanAll(t, "[[hello\nworld]]")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, token.STRING, toks[0])
	require.Equal(t, "hello\nworld", vals[0].String)
}

func TestScanLongStringWithLevel(t *testing.T) {
	toks, vals, errs := scanAll(t, "[=[a]]b]=]")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, token.STRING, toks[0])
	require.Equal(t, "a]]b", vals[0].String)
}

func TestScanLongStringLeadingNewlineSkipped(t *testing.T) {
	_, vals, _ := scanAll(t, "[[\nhello]]")
	require.Equal(t, "hello", vals[0].String)
}

func TestScanLineComment(t *testing.T) {
	toks, _, errs := scanAll(t, "-- a comment\nlocal")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{token.LOCAL, token.EOF}, toks)
}

func TestScanBlockComment(t *testing.T) {
	toks, _, errs := scanAll(t, "--[[ multi\nline ]] local")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{token.LOCAL, token.EOF}, toks)
}

func TestScanBlockCommentWithLevel(t *testing.T) {
	toks, _, errs := scanAll(t, "--[==[ a ]] still comment ]==] local")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{token.LOCAL, token.EOF}, toks)
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	_, _, errs := scanAll(t, "--[[ never closes")
	require.Equal(t, 1, errs.Len())
	require.Contains(t, errs.All()[0].Msg, "unterminated block comment")
}

func TestScanPunctAndOperators(t *testing.T) {
	toks, _, errs := scanAll(t, "== ~= <= >= < > .. ... . = + - * / % ^ # ( ) { } [ ] ; , :")
	require.Equal(t, 0, errs.Len())
	want := []token.Token{
		token.EQ, token.NEQ, token.LE, token.GE, token.LT, token.GT,
		token.CONCAT, token.ELLIPSIS, token.DOT, token.ASSIGN,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.CARET, token.HASH,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.LBRACK, token.RBRACK,
		token.SEMI, token.COMMA, token.COLON, token.EOF,
	}
	require.Equal(t, want, toks)
}

func TestScanIllegalTilde(t *testing.T) {
	toks, _, errs := scanAll(t, "~")
	require.Equal(t, 1, errs.Len())
	require.Equal(t, token.ILLEGAL, toks[0])
}

func TestScanChunkedAcrossBoundary(t *testing.T) {
	chunks := [][]byte{[]byte("loc"), []byte("al x"), []byte(" = "), []byte(`"he`), []byte(`llo"`)}
	i := 0
	l := New(funcReader(func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}), "chunked")

	var toks []token.Token
	var vals []token.Value
	for {
		var v token.Value
		tok := l.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	require.Equal(t, 0, l.Errors().Len())
	require.Equal(t, []token.Token{token.LOCAL, token.IDENT, token.ASSIGN, token.STRING, token.EOF}, toks)
	require.Equal(t, "x", vals[1].String)
	require.Equal(t, "hello", vals[3].String)
}

func TestErrorListSortAndError(t *testing.T) {
	var l ErrorList
	l.Add(token.MakePos(3, 1), "third")
	l.Add(token.MakePos(1, 5), "first")
	l.Add(token.MakePos(2, 1), "second")
	l.Sort()
	require.Equal(t, "first", l.All()[0].Msg)
	require.Equal(t, "second", l.All()[1].Msg)
	require.Equal(t, "third", l.All()[2].Msg)
	require.Error(t, l.Err())
}

func TestErrorListEmpty(t *testing.T) {
	var l ErrorList
	require.Nil(t, l.Err())
	require.Equal(t, 0, l.Len())
}
