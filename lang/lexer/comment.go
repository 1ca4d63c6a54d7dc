package lexer

import "github.com/mna/luaj/lang/token"

// skipComment consumes a comment body, the "--" having already been
// consumed. A long bracket ("--[[", "--[==[", ...) comment runs until the
// matching closing bracket of the same level, or reports "unterminated
// block comment" at EOF; anything else runs to end of line.
func (l *Lexer) skipComment() {
	if l.cur == '[' {
		if level, ok := l.peekLongBracketOpen(); ok {
			l.consumeLongBracketOpen(level)
			l.skipLongBracketBody(level)
			return
		}
	}
	for l.cur != '\n' && l.cur >= 0 {
		l.advance()
	}
}

// peekLongBracketOpen reports whether the cursor (at '[') begins a long
// bracket "[=*[" and, if so, its level (the number of '=' signs), without
// consuming anything.
func (l *Lexer) peekLongBracketOpen() (level int, ok bool) {
	// l.cur == '['; scan ahead in the unread buffer for '='* '['.
	off := l.roff
	for off < len(l.src) && l.src[off] == '=' {
		level++
		off++
	}
	if off < len(l.src) && l.src[off] == '[' {
		return level, true
	}
	// An opening split across a reader chunk boundary (its '=' run or its
	// second '[' lying in the next chunk) is treated conservatively as "not a long bracket" rather than pulling
	// more input here; the opening is then reparsed as ordinary punctuation.
	return 0, false
}

func (l *Lexer) consumeLongBracketOpen(level int) {
	l.advance() // consume '['
	for i := 0; i < level; i++ {
		l.advance() // consume '='
	}
	l.advance() // consume second '['
	if l.cur == '\n' {
		l.advance() // a newline immediately after the opening bracket is skipped
	}
}

func (l *Lexer) skipLongBracketBody(level int) {
	for {
		if l.cur < 0 {
			l.error("unterminated block comment")
			return
		}
		if l.cur == ']' {
			if l.tryConsumeLongBracketClose(level) {
				return
			}
		}
		l.advance()
	}
}

// tryConsumeLongBracketClose attempts to consume "]=*]" at the given level
// starting at the current ']'. Returns false (consuming nothing) if the
// run of '=' doesn't match level or isn't followed by ']'.
func (l *Lexer) tryConsumeLongBracketClose(level int) bool {
	off := l.roff
	n := 0
	for off < len(l.src) && l.src[off] == '=' {
		n++
		off++
	}
	if n != level || off >= len(l.src) || l.src[off] != ']' {
		return false
	}
	l.advance() // ']'
	for i := 0; i < level; i++ {
		l.advance() // '='
	}
	l.advance() // ']'
	return true
}

// tryLongString attempts to scan a long-bracket string literal "[[...]]"
// (optionally "[=...=[...]=...=]"). The cursor is at '['. Returns ok=false
// if this isn't in fact a long bracket opening, leaving the cursor
// untouched so the caller falls back to ordinary punctuation scanning.
func (l *Lexer) tryLongString(val *token.Value) (token.Token, bool) {
	level, ok := l.peekLongBracketOpen()
	if !ok {
		return token.ILLEGAL, false
	}

	l.startRecord()
	l.consumeLongBracketOpenRecording(level)

	var decoded []byte
	for {
		if l.cur < 0 {
			l.error("unterminated string")
			break
		}
		if l.cur == ']' {
			if l.tryConsumeLongBracketCloseRecording(level) {
				break
			}
		}
		decoded = appendRune(decoded, l.cur)
		l.take()
	}

	val.Raw = l.stopRecord()
	val.String = string(decoded)
	return token.STRING, true
}

func (l *Lexer) consumeLongBracketOpenRecording(level int) {
	l.take()
	for i := 0; i < level; i++ {
		l.take()
	}
	l.take()
	if l.cur == '\n' {
		l.take()
	}
}

func (l *Lexer) tryConsumeLongBracketCloseRecording(level int) bool {
	off := l.roff
	n := 0
	for off < len(l.src) && l.src[off] == '=' {
		n++
		off++
	}
	if n != level || off >= len(l.src) || l.src[off] != ']' {
		return false
	}
	l.take()
	for i := 0; i < level; i++ {
		l.take()
	}
	l.take()
	return true
}
