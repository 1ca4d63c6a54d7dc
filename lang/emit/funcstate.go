package emit

import (
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/value"
)

// MaxLocals is the largest number of live locals a function scope may
// declare, bounded by the 8-bit slot operand (slot 255 is code.NoSlot):
// the 256th local triggers "too many local variables in function".
const MaxLocals = 255

// MaxConstants is the largest number of entries a function's constant pool
// may hold, bounded by the 16-bit D operand: the 65,537th constant
// triggers "too many constants in function".
const MaxConstants = 65536

// blockScope is a lexical block: "do...end", a loop body, a then/else arm.
// Block scopes nest within a FuncState and are never shared across
// functions.
type blockScope struct {
	parent     *blockScope
	firstLocal int
	isLoop     bool
	breaks     int // jump-list head for `break` statements targeting this loop
}

// FuncState holds the register allocator, constant pool and jump-list
// state for one function prototype while the parser is inside its body.
// It is discarded once the prototype is frozen (EndFunction).
type FuncState struct {
	Proto  *value.FuncProto
	Heap   *value.Heap
	Parent *FuncState

	numStack  int
	numLocals int
	locals    []string

	block *blockScope

	// constNum/constStr dedup the constant pool by content, keyed the same
	// way the teacher reaches for a SwissTable-backed map for hot-path
	// lookups (lang/value's string interner does the same).
	constNum *swiss.Map[float64, uint16]
	constStr *swiss.Map[string, uint16]
}

// NewFuncState allocates a fresh function prototype on the heap and
// returns both the FuncState used to compile its body and the Value
// referencing it (for the caller to stash as a KFN constant once the body
// is done).
func NewFuncState(heap *value.Heap, parent *FuncState, chunkName string, startLine int) (*FuncState, value.Value) {
	v, proto := heap.NewFuncProto()
	proto.ChunkName = chunkName
	proto.StartLine = startLine
	fs := &FuncState{
		Proto:    proto,
		Heap:     heap,
		Parent:   parent,
		constNum: swiss.NewMap[float64, uint16](8),
		constStr: swiss.NewMap[string, uint16](8),
	}
	return fs, v
}

// EnterBlock pushes a new lexical block scope.
func (fs *FuncState) EnterBlock(isLoop bool) {
	fs.block = &blockScope{parent: fs.block, firstLocal: fs.numLocals, isLoop: isLoop, breaks: NoJump}
}

// LeaveBlock pops the current block scope, discarding any locals it
// declared, and returns it (the caller patches its break list, if any,
// once the instruction to land on is known).
func (fs *FuncState) LeaveBlock() *blockScope {
	b := fs.block
	fs.locals = slices.Delete(fs.locals, b.firstLocal, len(fs.locals))
	fs.numLocals = b.firstLocal
	fs.numStack = b.firstLocal
	fs.block = b.parent
	return b
}

// EnclosingLoop walks outward from the current block looking for the
// nearest loop scope, returning nil if none is found (a `break` outside
// any loop is a syntax error the caller must raise).
func (fs *FuncState) EnclosingLoop() *blockScope {
	for b := fs.block; b != nil; b = b.parent {
		if b.isLoop {
			return b
		}
	}
	return nil
}

// AddBreak records a `break` statement's jump in scope's break list.
func (fs *FuncState) AddBreak(scope *blockScope, pc int) {
	scope.breaks = fs.appendJmp(scope.breaks, pc)
}

// PatchBreaks patches every jump recorded by AddBreak for scope to target,
// the instruction right after the loop.
func (fs *FuncState) PatchBreaks(scope *blockScope, target int) bool {
	return fs.patchJmps(scope.breaks, target)
}

// DeclareLocal commits the value already sitting at the next free slot
// (numLocals) as a named local. The caller must have already pushed that
// value there (via ToNextSlot or equivalent) before calling this.
func (fs *FuncState) DeclareLocal(name string) (slot uint8, ok bool) {
	if fs.numLocals >= MaxLocals {
		return 0, false
	}
	slot = uint8(fs.numLocals)
	if len(fs.locals) <= fs.numLocals {
		fs.locals = append(fs.locals, name)
	} else {
		fs.locals[fs.numLocals] = name
	}
	fs.numLocals++
	if fs.numStack < fs.numLocals {
		fs.numStack = fs.numLocals
	}
	return slot, true
}

// ResolveLocal looks up name against the locals stack in reverse (so
// shadowing resolves to the innermost declaration), returning ok=false if
// no local by that name is visible. Only the current function's own
// locals are searched: there are no upvalues to chase (see spec
// Non-goals), so a name unresolved here is a compile-time "undefined
// name" error for the caller to raise.
func (fs *FuncState) ResolveLocal(name string) (slot uint8, ok bool) {
	for i := fs.numLocals - 1; i >= 0; i-- {
		if fs.locals[i] == name {
			return uint8(i), true
		}
	}
	return 0, false
}

// StackTop returns the current top-of-stack register count (numStack).
func (fs *FuncState) StackTop() int { return fs.numStack }

// NumLocals returns the number of committed (named) locals.
func (fs *FuncState) NumLocals() int { return fs.numLocals }

// ResetStackToLocals restores numStack to numLocals, enforcing the
// between-statements invariant that no temporary slot is left dangling.
func (fs *FuncState) ResetStackToLocals() { fs.numStack = fs.numLocals }

// PC returns the current program counter (the index the next emitted
// instruction will occupy).
func (fs *FuncState) PC() int { return len(fs.Proto.Ins) }

func (fs *FuncState) emit(ins code.Instruction, line int) int {
	pc := len(fs.Proto.Ins)
	fs.Proto.Ins = append(fs.Proto.Ins, ins)
	fs.Proto.Lines = append(fs.Proto.Lines, int32(line))
	return pc
}

// Ins returns the instruction currently at pc.
func (fs *FuncState) Ins(pc int) code.Instruction { return fs.Proto.Ins[pc] }

// SetIns overwrites the instruction at pc.
func (fs *FuncState) SetIns(pc int, ins code.Instruction) { fs.Proto.Ins[pc] = ins }

// ConstNum returns (allocating if needed) the constant-pool index of the
// number n, or ok=false if the pool is full ("too many constants").
func (fs *FuncState) ConstNum(n float64) (idx uint16, ok bool) {
	if idx, ok := fs.constNum.Get(n); ok {
		return idx, true
	}
	if len(fs.Proto.K) >= MaxConstants {
		return 0, false
	}
	idx = uint16(len(fs.Proto.K))
	fs.Proto.K = append(fs.Proto.K, value.Number(n))
	fs.constNum.Put(n, idx)
	return idx, true
}

// ConstStr returns (allocating if needed) the constant-pool index of the
// string s, or ok=false if the pool is full.
func (fs *FuncState) ConstStr(s string) (idx uint16, ok bool) {
	if idx, ok := fs.constStr.Get(s); ok {
		return idx, true
	}
	if len(fs.Proto.K) >= MaxConstants {
		return 0, false
	}
	v := fs.Heap.NewString([]byte(s))
	idx = uint16(len(fs.Proto.K))
	fs.Proto.K = append(fs.Proto.K, v)
	fs.constStr.Put(s, idx)
	return idx, true
}

// ConstFunc records a nested function prototype's Value in the enclosing
// function's constant pool, or ok=false if the pool is full. Function
// constants are never deduplicated (each function literal is distinct).
func (fs *FuncState) ConstFunc(v value.Value) (idx uint16, ok bool) {
	if len(fs.Proto.K) >= MaxConstants {
		return 0, false
	}
	idx = uint16(len(fs.Proto.K))
	fs.Proto.K = append(fs.Proto.K, v)
	return idx, true
}
