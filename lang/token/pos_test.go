package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakePos(t *testing.T) {
	p := MakePos(12, 34)
	line, col := p.LineCol()
	require.Equal(t, 12, line)
	require.Equal(t, 34, col)
	require.False(t, p.Unknown())
}

func TestPosUnknown(t *testing.T) {
	require.True(t, Pos(0).Unknown())
	require.True(t, MakePos(0, 1).Unknown())
	require.True(t, MakePos(1, 0).Unknown())
	require.False(t, MakePos(1, 1).Unknown())
}

func TestPosMaxBounds(t *testing.T) {
	p := MakePos(MaxLines, MaxCols)
	line, col := p.LineCol()
	require.Equal(t, MaxLines, line)
	require.Equal(t, MaxCols, col)
}
