package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/luaj/lang/lexer"
	"github.com/mna/luaj/lang/reader"
	"github.com/mna/luaj/lang/token"
)

// tokenizeFile prints path's token stream, one token per line, following
// the teacher's TokenizeFiles output shape ("pos: kind literal").
func tokenizeFile(stdio mainer.Stdio, path string) error {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	defer f.Close()

	lx := lexer.New(reader.NewChunked(f), path)
	var val token.Value
	for {
		tok := lx.Scan(&val)
		fmt.Fprintf(stdio.Stdout, "%s: %s", val.Pos, tok)
		if lit := tok.Literal(val); lit != "" {
			fmt.Fprintf(stdio.Stdout, " %s", lit)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok == token.EOF {
			break
		}
	}
	if errs := lx.Errors(); errs.Len() > 0 {
		errs.Sort()
		fmt.Fprintln(stdio.Stderr, errs.Error())
		return errs
	}
	return nil
}
