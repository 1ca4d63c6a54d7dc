package disasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/disasm"
	"github.com/mna/luaj/lang/value"
)

func TestDisassembleSimpleFunction(t *testing.T) {
	heap := value.NewHeap()
	protoVal, fp := heap.NewFuncProto()
	_ = protoVal
	fp.Name = "main"
	fp.ChunkName = "t"
	fp.NumParams = 0
	fp.StartLine = 1
	fp.EndLine = 3
	fp.K = []value.Value{value.Number(42), heap.NewString([]byte("hi"))}
	fp.Ins = []code.Instruction{
		code.MakeAD(code.KINT, 0, 1),
		code.MakeAD(code.RET1, 0, 0),
	}
	fp.Lines = []int32{2, 3}

	out := disasm.Disassemble(fp, heap)

	require.Contains(t, out, "function main (0 params, line 1-3)")
	require.Contains(t, out, "constants:")
	require.Contains(t, out, "number 42")
	require.Contains(t, out, `string "hi"`)
	require.Contains(t, out, "code:")
	require.Contains(t, out, "kint")
	require.Contains(t, out, "ret1")

	lines := 0
	for _, c := range out {
		if c == '\n' {
			lines++
		}
	}
	// header + "constants:" + 2 constants + "code:" + 2 instructions
	require.Equal(t, 7, lines)
}

func TestDisassembleNestedFunction(t *testing.T) {
	heap := value.NewHeap()
	outerVal, outer := heap.NewFuncProto()
	_ = outerVal
	outer.Name = "outer"
	outer.ChunkName = "t"
	outer.StartLine, outer.EndLine = 1, 5

	innerVal, inner := heap.NewFuncProto()
	inner.Name = "inner"
	inner.ChunkName = "t"
	inner.StartLine, inner.EndLine = 2, 2
	inner.Ins = []code.Instruction{code.MakeABC(code.RET0, 0, 0, 0)}
	inner.Lines = []int32{2}

	outer.K = []value.Value{innerVal}
	outer.Ins = []code.Instruction{
		code.MakeAD(code.KFN, 0, 0),
		code.MakeABC(code.RET0, 0, 0, 0),
	}
	outer.Lines = []int32{1, 5}

	out := disasm.Disassemble(outer, heap)

	require.Contains(t, out, "function outer")
	require.Contains(t, out, "function inner")
	require.Contains(t, out, "function inner (0 params, line 2-2)")
}

func TestDisassembleJump(t *testing.T) {
	heap := value.NewHeap()
	protoVal, fp := heap.NewFuncProto()
	_ = protoVal
	fp.Name = "f"
	fp.ChunkName = "t"
	fp.StartLine, fp.EndLine = 1, 1
	fp.Ins = []code.Instruction{
		code.MakeE(code.JMP, code.SentinelJumpE),
		code.MakeABC(code.RET0, 0, 0, 0),
	}
	fp.Lines = []int32{1, 1}

	out := disasm.Disassemble(fp, heap)
	require.Contains(t, out, "jmp")
	// a freshly emitted, unpatched JMP self-targets its own pc (0).
	require.Contains(t, out, "-> 0")
}
