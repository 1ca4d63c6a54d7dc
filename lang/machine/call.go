package machine

import (
	"github.com/mna/luaj/lang/parser"
	"github.com/mna/luaj/lang/reader"
	"github.com/mna/luaj/lang/value"
)

// Push appends v to the top of the host-visible value stack: the stack
// Load's result and Call/PCall's arguments and results live on.
func (st *State) Push(v value.Value) {
	if err := st.ensureStack(st.top + 1); err != nil {
		// Growth failure here cannot be reported through Push's signature;
		// callers that need a hard ceiling should size MaxStack generously
		// and check PCall's StatusRunErr instead.
		panic(err)
	}
	st.regs[st.top] = v
	st.top++
}

func (st *State) pushString(s string) {
	st.Push(st.Heap.NewString([]byte(s)))
}

// Pop removes and returns the value at the top of the stack.
func (st *State) Pop() value.Value {
	st.top--
	return st.regs[st.top]
}

// Top reports how many values are currently on the host-visible stack.
func (st *State) Top() int { return st.top }

// Get returns the value idx slots from the bottom of the host-visible
// stack (0-based).
func (st *State) Get(idx int) value.Value { return st.regs[idx] }

// SetTop discards or nil-pads the host-visible stack to exactly n values.
func (st *State) SetTop(n int) {
	if n > st.top {
		if err := st.ensureStack(n); err != nil {
			panic(err)
		}
		for i := st.top; i < n; i++ {
			st.regs[i] = value.Nil()
		}
	}
	st.top = n
}

// Load compiles src (read through r) and, on success, pushes the
// resulting function prototype onto the stack, ready for Call/PCall — the
// embedding API's load. On a syntax error it instead pushes the error
// message and returns StatusSyntaxErr.
func (st *State) Load(r reader.Reader, chunkName string) Status {
	protoVal, _, err := parser.ParseValue(r, st.Heap, chunkName)
	if err != nil {
		st.pushString(err.Error())
		return StatusSyntaxErr
	}
	st.Push(protoVal)
	return StatusOK
}

// Call invokes the function at stack position top-nargs-1 with the nargs
// values above it, in place — the embedding API's unchecked call: a
// runtime error propagates to the caller rather than being caught here
// (use PCall for that). nresults < 0 requests as many results as the
// callee produces; otherwise the result count is padded or truncated to
// exactly nresults.
func (st *State) Call(nargs, nresults int) error {
	calleeIdx := st.top - nargs - 1
	if calleeIdx < 0 {
		return &RuntimeError{Msg: "not enough values on the stack for call"}
	}

	calleeVal := st.regs[calleeIdx]
	proto, ok := funcProto(st.Heap, calleeVal)
	if !ok {
		return &RuntimeError{Msg: "attempt to call a " + st.Heap.TypeName(calleeVal) + " value"}
	}

	newBase := calleeIdx + 1
	if err := st.ensureStack(newBase + maxRegsPerFrame); err != nil {
		return err
	}
	for i := nargs; i < proto.NumParams; i++ {
		st.setReg(newBase, uint8(i), value.Nil())
	}
	if len(st.frames) >= st.maxCallDepth {
		return &RuntimeError{Msg: "stack overflow"}
	}

	entryDepth := len(st.frames)
	st.frames = append(st.frames, frame{proto: proto, ip: 0, base: newBase, want: nresults})

	produced, rerr := st.run(entryDepth)
	if rerr != nil {
		st.frames = st.frames[:entryDepth]
		return rerr
	}

	if nresults < 0 {
		st.top = calleeIdx + produced
	} else {
		st.top = calleeIdx + nresults
	}
	return nil
}

// PCall is Call's protected counterpart — the embedding API's pcall: it
// calls the function exactly as Call does, but on error restores the
// stack to the function's position, pushes the error object, and returns
// a status instead of propagating the error to the caller. msgh, when
// positive, is the 1-based stack index of an already-pushed message
// handler function invoked with the raw error message before it replaces
// the error object; a handler that itself errors yields StatusErrErr.
func (st *State) PCall(nargs, nresults, msgh int) Status {
	fnIdx := st.top - nargs - 1
	savedFrames := len(st.frames)

	err := st.Call(nargs, nresults)
	if err == nil {
		return StatusOK
	}

	st.frames = st.frames[:savedFrames]
	st.top = fnIdx
	msg := err.Error()

	status := StatusRunErr
	if rerr, ok := err.(*RuntimeError); ok && rerr.Mem {
		status = StatusMemErr
	}

	if msgh > 0 {
		st.Push(st.regs[msgh-1])
		st.pushString(msg)
		if herr := st.Call(1, 1); herr != nil {
			st.frames = st.frames[:savedFrames]
			st.top = fnIdx
			st.pushString("error in error handling")
			return StatusErrErr
		}
		return status
	}

	st.pushString(msg)
	return status
}
