package value

import "github.com/mna/luaj/lang/code"

// FuncProto is the compiled artefact produced by the parser for a chunk or
// a function literal: its instructions, per-instruction line table and
// constant pool. It is built incrementally while the parser is inside the
// corresponding function scope and is considered frozen the moment that
// scope exits (the parser never mutates Ins/Lines/K of a FuncProto whose
// enclosing function body has finished parsing).
//
// Closures and upvalues are not implemented (see spec Non-goals); a
// function prototype can only reference its own locals and constants.
type FuncProto struct {
	Name      string // optional, empty for the top-level chunk
	ChunkName string
	StartLine int
	EndLine   int

	NumParams int

	Ins   []code.Instruction // bytecode, indexed by PC
	Lines []int32            // Lines[pc] is the source line of Ins[pc]

	K []Value // constant pool: numbers, strings, nested function prototypes
}

var _ Object = (*FuncProto)(nil)

func (fp *FuncProto) Tag() ObjTag { return TagFunction }

// Line returns the source line recorded for the instruction at pc, or 0 if
// pc is out of range.
func (fp *FuncProto) Line(pc int) int {
	if pc < 0 || pc >= len(fp.Lines) {
		return 0
	}
	return int(fp.Lines[pc])
}

// DisplayName returns Name, or a placeholder for anonymous functions and
// the top-level chunk.
func (fp *FuncProto) DisplayName() string {
	if fp.Name != "" {
		return fp.Name
	}
	if fp.ChunkName != "" {
		return "chunk " + fp.ChunkName
	}
	return "?"
}
