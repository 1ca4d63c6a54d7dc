package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/machine"
	"github.com/mna/luaj/lang/value"
)

// newChunk allocates a fresh FuncProto on st's heap and pushes it, ready
// for Call/PCall, the way State.Load would for a compiled chunk.
func newChunk(st *machine.State) *value.FuncProto {
	protoVal, fp := st.Heap.NewFuncProto()
	fp.ChunkName = "test"
	st.Push(protoVal)
	return fp
}

func TestCallArithmeticAndReturn(t *testing.T) {
	st := machine.NewState(nil)
	fp := newChunk(st)
	fp.Ins = []code.Instruction{
		code.MakeAD(code.KINT, 0, 1),            // R0 = 1
		code.MakeAD(code.KINT, 1, 2),             // R1 = 2
		code.MakeABC(code.ADDVV, 2, 0, 1),        // R2 = R0 + R1
		code.MakeAD(code.RET1, 0, 2),             // return R2
	}
	fp.Lines = []int32{1, 1, 1, 1}

	require.NoError(t, st.Call(0, 1))
	require.Equal(t, 1, st.Top())
	result := st.Get(0)
	require.True(t, result.IsNumber())
	require.Equal(t, 3.0, result.Float())
}

func TestCallMultipleReturnsPadsNil(t *testing.T) {
	st := machine.NewState(nil)
	fp := newChunk(st)
	fp.Ins = []code.Instruction{
		code.MakeAD(code.KINT, 0, 7), // R0 = 7
		code.MakeAD(code.RET1, 0, 0), // return R0
	}
	fp.Lines = []int32{1, 1}

	require.NoError(t, st.Call(0, 3))
	require.Equal(t, 3, st.Top())
	require.Equal(t, 7.0, st.Get(0).Float())
	require.True(t, st.Get(1).IsNil())
	require.True(t, st.Get(2).IsNil())
}

func TestArithmeticTypeMismatchIsRuntimeError(t *testing.T) {
	st := machine.NewState(nil)
	fp := newChunk(st)
	fp.Ins = []code.Instruction{
		code.MakeAD(code.KPRIM, 0, code.PrimNil), // R0 = nil
		code.MakeAD(code.KINT, 1, 1),              // R1 = 1
		code.MakeABC(code.ADDVV, 2, 0, 1),          // R2 = R0 + R1 (error)
		code.MakeAD(code.RET1, 0, 2),
	}
	fp.Lines = []int32{5, 5, 5, 5}

	status := st.PCall(0, 1, 0)
	require.Equal(t, machine.StatusRunErr, status)
	require.Equal(t, 1, st.Top())
	errObj, ok := st.Heap.Resolve(st.Get(0)).(*value.StringObj)
	require.True(t, ok)
	require.Equal(t, "test:5: attempt to add a nil and number value", errObj.String())
}

func TestNestedCall(t *testing.T) {
	st := machine.NewState(nil)
	fp := newChunk(st)

	calleeVal, callee := st.Heap.NewFuncProto()
	callee.ChunkName = "test"
	callee.Ins = []code.Instruction{
		code.MakeAD(code.KINT, 0, 42),
		code.MakeAD(code.RET1, 0, 0),
	}
	callee.Lines = []int32{2, 2}

	fp.K = []value.Value{calleeVal}
	fp.Ins = []code.Instruction{
		code.MakeAD(code.KFN, 0, 0),       // R0 = callee
		code.MakeABC(code.CALL, 0, 0, 1),  // R0 = R0() (1 result)
		code.MakeAD(code.RET1, 0, 0),      // return R0
	}
	fp.Lines = []int32{1, 1, 1}

	require.NoError(t, st.Call(0, 1))
	require.Equal(t, 42.0, st.Get(0).Float())
}

func TestCallDepthOverflowIsCaught(t *testing.T) {
	st := machine.NewState(nil)
	st.MaxCallDepth = 4
	fp := newChunk(st)

	protoVal := st.Get(0)
	fp.K = []value.Value{protoVal}
	fp.Ins = []code.Instruction{
		code.MakeAD(code.KFN, 1, 0),      // R1 = self
		code.MakeABC(code.CALL, 1, 0, 0), // call self, no results
		code.MakeABC(code.RET0, 0, 0, 0),
	}
	fp.Lines = []int32{1, 1, 1}

	status := st.PCall(0, 0, 0)
	require.Equal(t, machine.StatusRunErr, status)
	errObj, ok := st.Heap.Resolve(st.Get(0)).(*value.StringObj)
	require.True(t, ok)
	require.Contains(t, errObj.String(), "stack overflow")
}

// TestAllocatorRefusalIsMemErr drives deep-enough recursion to force a
// register-stack growth past the initial allocation, with an AllocFunc that
// always refuses: the resulting RuntimeError must surface through PCall as
// StatusMemErr, distinct from an ordinary StatusRunErr.
func TestAllocatorRefusalIsMemErr(t *testing.T) {
	st := machine.NewState(func(oldSlots, newSlots int) bool { return false })
	st.MaxCallDepth = 3000
	fp := newChunk(st)

	protoVal := st.Get(0)
	fp.K = []value.Value{protoVal}
	fp.Ins = []code.Instruction{
		code.MakeAD(code.KFN, 1, 0),      // R1 = self
		code.MakeABC(code.CALL, 1, 0, 0), // call self, no results
		code.MakeABC(code.RET0, 0, 0, 0),
	}
	fp.Lines = []int32{1, 1, 1}

	status := st.PCall(0, 0, 0)
	require.Equal(t, machine.StatusMemErr, status)
	errObj, ok := st.Heap.Resolve(st.Get(0)).(*value.StringObj)
	require.True(t, ok)
	require.Contains(t, errObj.String(), "out of memory")
}
