package code

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeABC(t *testing.T) {
	ins := MakeABC(ADDVV, 1, 2, 3)
	require.Equal(t, ADDVV, ins.Op())
	require.Equal(t, uint8(1), ins.A())
	require.Equal(t, uint8(2), ins.B())
	require.Equal(t, uint8(3), ins.C())
}

func TestMakeAD(t *testing.T) {
	ins := MakeAD(KNUM, 5, 1000)
	require.Equal(t, KNUM, ins.Op())
	require.Equal(t, uint8(5), ins.A())
	require.Equal(t, uint16(1000), ins.D())
}

func TestSetters(t *testing.T) {
	ins := MakeABC(ADDVV, 1, 2, 3)
	ins = ins.SetA(9)
	require.Equal(t, uint8(9), ins.A())
	require.Equal(t, uint8(2), ins.B())
	require.Equal(t, uint8(3), ins.C())
	require.Equal(t, ADDVV, ins.Op())

	ins = ins.SetOp(SUBVV)
	require.Equal(t, SUBVV, ins.Op())
	require.Equal(t, uint8(9), ins.A())
}

func TestJumpEncoding(t *testing.T) {
	pc := 10
	target := 20
	ins := MakeE(JMP, 0)
	ins = ins.SetE(uint32(target - pc + JumpBias))
	require.Equal(t, target, JumpTarget(ins, pc))

	// backward jump
	pc, target = 100, 5
	ins = MakeE(JMP, uint32(target-pc+JumpBias))
	require.Equal(t, target, JumpTarget(ins, pc))
}

func TestInvertOp(t *testing.T) {
	ops := []Op{IST, ISF, ISTC, ISFC, EQVV, NEQVV, EQVP, NEQVP, EQVN, NEQVN, EQVS, NEQVS,
		LTVV, GEVV, LEVV, GTVV, LTVN, GEVN, LEVN, GTVN}
	for _, op := range ops {
		require.Equal(t, op, InvertOp(InvertOp(op)), "op %s", op)
	}
}

func TestIsConditional(t *testing.T) {
	require.True(t, IsConditional(IST))
	require.True(t, IsConditional(EQVS))
	require.True(t, IsConditional(LTVN))
	require.False(t, IsConditional(ADDVV))
	require.False(t, IsConditional(JMP))
}

func TestOpString(t *testing.T) {
	for op := Op(0); op < opMax; op++ {
		require.NotContains(t, op.String(), "illegal")
	}
	require.Contains(t, Op(opMax).String(), "illegal")
}
