// Package machine implements the threaded register-machine interpreter:
// the dispatch loop that executes a compiled FuncProto's bytecode, the
// growable register stack it runs on, and the embedding API (new_state /
// close_state / load / call / pcall in the spec's terms) a host program
// drives it through.
package machine

import (
	"context"
	"io"
	"os"

	"github.com/mna/luaj/lang/value"
)

const (
	initialStackSize = 4096

	// DefaultMaxStack bounds how large a State's register stack may grow,
	// in slots, absent an explicit State.MaxStack.
	DefaultMaxStack = 1 << 20

	// DefaultMaxCallDepth bounds how many nested CALLs a State allows
	// absent an explicit State.MaxCallDepth.
	DefaultMaxCallDepth = 200
)

// AllocFunc mirrors the embedding API's allocator hook (new_state's
// alloc_fn): given the register stack's current capacity and the capacity
// a pending growth needs, it reports whether the grow may proceed. Go's
// garbage-collected allocator means luaj never needs this hook for
// correctness — unlike a host that hands the VM a raw arena, growing the
// stack here is always just a make+copy — but NewState still threads it
// through State.ensureStack so an embedder wanting a hard memory ceiling
// has a real seam to attach one to, matching new_state's shape. A nil
// AllocFunc never refuses growth.
type AllocFunc func(oldSlots, newSlots int) bool

// State owns one independently-executing virtual machine: its register
// stack, its call-info stack, the heap of strings and function prototypes
// its values may reference, and the step/depth budgets bounding it.
// Nothing is shared between distinct States; close_state's contract
// ("the state and everything it owns become invalid") is Close dropping
// every slice State holds so the GC can reclaim them.
type State struct {
	// Name is an optional name that describes the thread, mostly useful in
	// error backtraces when a host runs more than one.
	Name string

	// Stdout and Stderr are the output writers recorded on the State; no
	// instruction of the machine writes to them. If nil, os.Stdout and
	// os.Stderr are used.
	Stdout io.Writer
	Stderr io.Writer

	// MaxSteps is the maximum number of executed instructions before the
	// thread raises a runtime error. A value <= 0 means no limit.
	MaxSteps int

	// MaxCallDepth limits the number of nested CALLs. A value <= 0 uses
	// DefaultMaxCallDepth.
	MaxCallDepth int

	// MaxStack limits how large the register stack may grow, in slots. A
	// value <= 0 uses DefaultMaxStack.
	MaxStack int

	// Heap owns every string and function prototype this State's values
	// may point to.
	Heap *value.Heap

	alloc AllocFunc

	ctx       context.Context
	ctxCancel func()

	regs   []value.Value
	top    int // height of the host-visible stack (Push/Pop/Call/PCall)
	frames []frame
	steps  uint64

	maxSteps     uint64
	maxCallDepth int
	maxStack     int

	stdout      io.Writer
	stderr      io.Writer
	initialized bool
}

// NewState creates a State — the embedding API's new_state — optionally
// bounded by an allocator hook. The returned State's Name, Stdout, Stderr,
// MaxSteps, MaxCallDepth and MaxStack fields may still be set by the
// caller before the first Push/Load/Call, exactly as the teacher's own
// Thread is configured by setting exported fields on a struct literal
// before its first use: init() only runs once, lazily, at the first call
// that actually touches the register stack.
func NewState(alloc AllocFunc) *State {
	return &State{
		Heap:  value.NewHeap(),
		alloc: alloc,
	}
}

func (st *State) init() {
	if st.initialized {
		return
	}
	st.initialized = true
	if st.MaxSteps <= 0 {
		st.maxSteps-- // wraps to MaxUint64: no limit
	} else {
		st.maxSteps = uint64(st.MaxSteps)
	}
	if st.MaxCallDepth <= 0 {
		st.maxCallDepth = DefaultMaxCallDepth
	} else {
		st.maxCallDepth = st.MaxCallDepth
	}
	if st.MaxStack <= 0 {
		st.maxStack = DefaultMaxStack
	} else {
		st.maxStack = st.MaxStack
	}
	if st.Stdout != nil {
		st.stdout = st.Stdout
	} else {
		st.stdout = os.Stdout
	}
	if st.Stderr != nil {
		st.stderr = st.Stderr
	} else {
		st.stderr = os.Stderr
	}
	if st.ctx == nil {
		st.ctx = context.Background()
		st.ctxCancel = func() {}
	}
	st.regs = make([]value.Value, initialStackSize)
}

// WithCancel rebinds the thread to ctx, so a running Call/PCall observes
// ctx's cancellation as a runtime error at the next instruction boundary.
// May be called either before or after the State's first use.
func (st *State) WithCancel(ctx context.Context) {
	if st.ctxCancel != nil {
		st.ctxCancel()
	}
	st.ctx, st.ctxCancel = context.WithCancel(ctx)
}

// Close invalidates the thread — the embedding API's close_state. Every
// value and prototype it owned becomes unreachable; there is nothing else
// to release explicitly since the heap is garbage-collected.
func (st *State) Close() {
	if st.ctxCancel != nil {
		st.ctxCancel()
	}
	st.regs = nil
	st.frames = nil
	st.Heap = nil
}
