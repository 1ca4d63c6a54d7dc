package lexer

import (
	"unicode/utf8"

	"github.com/mna/luaj/lang/token"
)

// scanShortString scans a single- or double-quoted string literal with
// backslash escapes. The decoded (unescaped) value is stored in val.String;
// val.Raw keeps the literal source text including quotes.
func (l *Lexer) scanShortString(val *token.Value) token.Token {
	quote := l.cur
	l.startRecord()
	l.take() // opening quote

	var decoded []byte
	for {
		if l.cur < 0 || l.cur == '\n' {
			l.error("unterminated string")
			break
		}
		if l.cur == quote {
			l.take()
			break
		}
		if l.cur == '\\' {
			l.take()
			decoded = l.scanEscape(decoded)
			continue
		}
		decoded = appendRune(decoded, l.cur)
		l.take()
	}

	val.Raw = l.stopRecord()
	val.String = string(decoded)
	return token.STRING
}

func appendRune(b []byte, r rune) []byte {
	if r < 0 {
		return b
	}
	if r < utf8.RuneSelf {
		return append(b, byte(r))
	}
	var buf [4]byte
	n := utf8.EncodeRune(buf[:], r)
	return append(b, buf[:n]...)
}

// scanEscape decodes one backslash escape sequence (the backslash itself
// has already been consumed and recorded) and appends the result to b.
func (l *Lexer) scanEscape(b []byte) []byte {
	switch l.cur {
	case 'n':
		l.take()
		return append(b, '\n')
	case 't':
		l.take()
		return append(b, '\t')
	case 'r':
		l.take()
		return append(b, '\r')
	case 'a':
		l.take()
		return append(b, '\a')
	case 'b':
		l.take()
		return append(b, '\b')
	case 'f':
		l.take()
		return append(b, '\f')
	case 'v':
		l.take()
		return append(b, '\v')
	case '\\', '"', '\'':
		r := l.cur
		l.take()
		return append(b, byte(r))
	case '\n':
		l.take()
		return append(b, '\n')
	default:
		if isDigit(l.cur) {
			n := 0
			for i := 0; i < 3 && isDigit(l.cur); i++ {
				n = n*10 + int(l.cur-'0')
				l.take()
			}
			if n > 255 {
				l.error("decimal escape too large")
				n = 255
			}
			return append(b, byte(n))
		}
		l.errorf("invalid escape sequence '\\%c'", l.cur)
		r := l.cur
		l.take()
		return appendRune(b, r)
	}
}
