package lexer

import (
	"strconv"

	"github.com/mna/luaj/lang/token"
)

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// scanNumber scans an int or float literal: decimal (123, 1.5, 1e10) or
// hexadecimal (0x1A, 0x1Ap4 — hex floats require a 'p' exponent, matching
// Lua's own grammar rather than C's optional one).
func (l *Lexer) scanNumber(val *token.Value) token.Token {
	l.startRecord()
	nerr := l.errs.Len()

	isHex := false
	if l.cur == '0' {
		l.take()
		if l.cur == 'x' || l.cur == 'X' {
			isHex = true
			l.take()
		}
	}

	digit := isDigit
	exp1, exp2 := byte('e'), byte('E')
	if isHex {
		digit = isHexDigit
		exp1, exp2 = 'p', 'P'
	}

	for digit(l.cur) {
		l.take()
	}
	if l.cur == '.' {
		l.take()
		for digit(l.cur) {
			l.take()
		}
	}
	if l.cur == rune(exp1) || l.cur == rune(exp2) {
		l.take()
		if l.cur == '+' || l.cur == '-' {
			l.take()
		}
		if !isDigit(l.cur) {
			l.error("malformed number: exponent has no digits")
		}
		for isDigit(l.cur) {
			l.take()
		}
	}
	if isAlpha(l.cur) {
		// a letter immediately following an otherwise-complete number is a
		// malformed literal ("1x", "1.5z", ...), not a separate identifier.
		l.error("malformed number near '" + l.rec.String() + string(l.cur) + "'")
		for isAlnum(l.cur) {
			l.take()
		}
	}

	raw := l.stopRecord()
	val.Raw = raw

	f, err := parseNumber(raw)
	if err != nil {
		// a literal already reported as malformed above is not reported twice
		if l.errs.Len() == nerr {
			l.errorf("invalid symbol in number '%s'", raw)
		}
		f = 0
	}
	val.Num = f
	return token.NUMBER
}

// parseNumber converts a scanned numeric literal to its double value. Go's
// strconv.ParseFloat accepts decimal floats and hex floats with a mandatory
// 'p' exponent, but Lua-style plain hex integers (0x1A, no exponent) are
// not valid Go hex-float syntax, so those are parsed as an unsigned hex
// integer and converted.
func parseNumber(raw string) (float64, error) {
	if len(raw) > 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		hasDot, hasExp := false, false
		for _, r := range raw[2:] {
			switch r {
			case '.':
				hasDot = true
			case 'p', 'P':
				hasExp = true
			}
		}
		if !hasDot && !hasExp {
			n, err := strconv.ParseUint(raw[2:], 16, 64)
			if err != nil {
				return 0, err
			}
			return float64(n), nil
		}
	}
	return strconv.ParseFloat(raw, 64)
}
