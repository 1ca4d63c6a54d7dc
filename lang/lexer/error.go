package lexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/luaj/lang/token"
)

// Error is a single lexical or syntactic error tied to a position in a
// named chunk.
type Error struct {
	ChunkName string
	Pos       token.Pos
	Msg       string
}

func (e Error) String() string {
	if e.ChunkName == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.ChunkName, e.Pos, e.Msg)
}

// ErrorList collects the errors found while scanning a single chunk. The
// lexer keeps scanning past a lexical error, so a caller that drains the
// whole token stream can report more than one mistake per run; the parser
// stops at the first one it observes.
type ErrorList struct {
	ChunkName string
	list      []Error
}

// Add records an error at pos.
func (l *ErrorList) Add(pos token.Pos, msg string) {
	l.list = append(l.list, Error{ChunkName: l.ChunkName, Pos: pos, Msg: msg})
}

// Addf records a formatted error at pos.
func (l *ErrorList) Addf(pos token.Pos, format string, args ...any) {
	l.Add(pos, fmt.Sprintf(format, args...))
}

// Len reports how many errors have been recorded.
func (l *ErrorList) Len() int { return len(l.list) }

// Sort orders the errors by position, stabilizing the order in which
// multiple errors on the same line are reported.
func (l *ErrorList) Sort() {
	sort.SliceStable(l.list, func(i, j int) bool {
		li, ci := l.list[i].Pos.LineCol()
		lj, cj := l.list[j].Pos.LineCol()
		if li != lj {
			return li < lj
		}
		return ci < cj
	})
}

// Err returns the accumulated errors as a single error value, or nil if
// none were recorded.
func (l *ErrorList) Err() error {
	if len(l.list) == 0 {
		return nil
	}
	return l
}

// Error implements the error interface: the first recorded error, followed
// by a count of the remaining ones.
func (l *ErrorList) Error() string {
	switch len(l.list) {
	case 0:
		return "no errors"
	case 1:
		return l.list[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more errors)", l.list[0], len(l.list)-1)
	return sb.String()
}

// All returns the full recorded error slice.
func (l *ErrorList) All() []Error { return l.list }
