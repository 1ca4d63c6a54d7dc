package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/luaj/lang/aux"
	"github.com/mna/luaj/lang/disasm"
	"github.com/mna/luaj/lang/machine"
	"github.com/mna/luaj/lang/value"
)

// run implements the luaj CLI's load-compile-run pipeline: load the named
// file, then (depending on the Cmd's flags) print its tokens, print its
// disassembly, or call it and print its results. The returned Status is
// exactly the embedding API's status code, which Main casts straight to
// the process exit code, matching the spec's CLI contract.
func (c *Cmd) run(ctx context.Context, stdio mainer.Stdio, path string) machine.Status {
	if c.Tokens {
		if err := tokenizeFile(stdio, path); err != nil {
			return machine.StatusSyntaxErr
		}
		return machine.StatusOK
	}

	lim, err := parseLimits()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment configuration: %s\n", err)
		return machine.StatusErrErr
	}

	st := machine.NewState(nil)
	st.Name = path
	st.Stdout = stdio.Stdout
	st.Stderr = stdio.Stderr
	st.MaxStack = lim.MaxStack
	st.MaxCallDepth = lim.MaxCallDepth
	st.MaxSteps = lim.MaxSteps
	st.WithCancel(ctx)

	status := aux.LoadFile(st, path)
	if status != machine.StatusOK {
		printStackError(stdio, st, path)
		return status
	}

	if c.Dump {
		proto, ok := st.Heap.Resolve(st.Get(0)).(*value.FuncProto)
		if !ok {
			fmt.Fprintln(stdio.Stderr, path+": loaded value is not a function prototype")
			return machine.StatusRunErr
		}
		fmt.Fprint(stdio.Stdout, disasm.Disassemble(proto, st.Heap))
		return machine.StatusOK
	}

	status = st.PCall(0, -1, 0)
	if status != machine.StatusOK {
		printStackError(stdio, st, path)
		return status
	}
	for i := 0; i < st.Top(); i++ {
		fmt.Fprintln(stdio.Stdout, formatValue(st, st.Get(i)))
	}
	return machine.StatusOK
}

// printStackError prints the error object a failed Load/PCall leaves on
// top of the stack (a string, or nil for an out-of-memory failure), with
// the file name prefixed for host-visible context.
func printStackError(stdio mainer.Stdio, st *machine.State, path string) {
	if st.Top() == 0 {
		fmt.Fprintln(stdio.Stderr, path+": unknown error")
		return
	}
	fmt.Fprintln(stdio.Stderr, path+": "+formatValue(st, st.Get(st.Top()-1)))
}
