// Package maincmd implements the luaj command-line driver: load a file,
// compile it, and either run it, print a disassembly, or print its token
// stream, depending on the flags given.
//
// Grounded on the teacher's internal/maincmd package for its mainer-driven
// flag parsing and usage-string texture (a Cmd struct with flag-tagged
// fields, Validate/Main, short/long usage strings), but collapsed to a
// single command instead of parse/resolve/tokenize subcommands: this
// spec's CLI ("luaj <file>: load, compile, run, exit with the load
// status") has no separate AST-dump phase to route between, only the
// --dump and --tokens diagnostic modes SPEC_FULL.md adds.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "luaj"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <file>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <file>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and interpreter for the %[1]s programming language.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --dump                    Print a disassembly of the compiled chunk
                                 instead of running it.
       --tokens                  Print the chunk's token stream instead of
                                 compiling or running it.

Tunables (settable via environment variables):
       LUAJ_MAX_STACK            Register stack ceiling, in slots.
       LUAJ_MAX_CALLDEPTH        Nested CALL ceiling.
       LUAJ_MAX_STEPS            Executed-instruction ceiling (0: no limit).

More information on the %[1]s repository:
       https://github.com/mna/luaj
`, binName)
)

// Cmd is the luaj command-line driver, its exported fields populated by
// mainer.Parser from argv via their flag tags.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Dump    bool `flag:"dump"`
	Tokens  bool `flag:"tokens"`

	args []string
}

// SetArgs receives the positional (non-flag) arguments from mainer.Parser.
func (c *Cmd) SetArgs(args []string) { c.args = args }

// SetFlags receives which flags were explicitly set from mainer.Parser;
// unused here since no flag's zero value is ambiguous with "not given".
func (c *Cmd) SetFlags(map[string]bool) {}

// Validate checks the parsed Cmd for argument errors mainer.Parser itself
// cannot catch (arity, flag combinations).
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("exactly one file must be provided, got %d", len(c.args))
	}
	if c.Dump && c.Tokens {
		return fmt.Errorf("--dump and --tokens are mutually exclusive")
	}
	return nil
}

// Main is the CLI's entry point: parse argv, dispatch to Help/Version or
// to the load-compile-run pipeline, and return the process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false, // VM tunables are resolved separately, see limits.go
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	return mainer.ExitCode(c.run(ctx, stdio, c.args[0]))
}
