package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String())
	}
}

func TestLookup(t *testing.T) {
	for tok := AND; tok < maxToken; tok++ {
		got := Lookup(tok.String())
		require.Equal(t, tok, got)
	}
	require.Equal(t, IDENT, Lookup("not_a_keyword"))
	require.Equal(t, IDENT, Lookup("x"))
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "end of file", EOF.GoString())
	require.Equal(t, "and", AND.GoString())
}

func TestIsKeyword(t *testing.T) {
	require.True(t, AND.IsKeyword())
	require.True(t, WHILE.IsKeyword())
	require.False(t, PLUS.IsKeyword())
	require.False(t, IDENT.IsKeyword())
}
