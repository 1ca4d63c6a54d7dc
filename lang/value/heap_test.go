package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapStringInterning(t *testing.T) {
	h := NewHeap()
	a := h.NewString([]byte("hello"))
	b := h.NewString([]byte("hello"))
	require.Equal(t, a, b, "identical byte content should share one heap handle")
	require.True(t, h.Equal(a, b))
}

func TestHeapStringEqualityByContent(t *testing.T) {
	h := NewHeap()
	a := h.NewString([]byte("abc"))
	b := h.NewString([]byte("abd"))
	require.NotEqual(t, a, b)
	require.False(t, h.Equal(a, b))
}

func TestHeapTypeName(t *testing.T) {
	h := NewHeap()
	require.Equal(t, "nil", h.TypeName(Nil()))
	require.Equal(t, "boolean", h.TypeName(True()))
	require.Equal(t, "boolean", h.TypeName(False()))
	require.Equal(t, "number", h.TypeName(Number(1)))
	require.Equal(t, "NaN", h.TypeName(Value(qnanBits)))
	require.Equal(t, "string", h.TypeName(h.NewString([]byte("x"))))

	fv, _ := h.NewFuncProto()
	require.Equal(t, "function", h.TypeName(fv))
}

func TestHeapEqualNaN(t *testing.T) {
	h := NewHeap()
	nan := Number(negZeroDivByZero())
	require.False(t, h.Equal(nan, nan), "NaN must never compare equal, even to itself")
}

func negZeroDivByZero() float64 {
	zero := 0.0
	return zero / zero
}

func TestConcatStrings(t *testing.T) {
	h := NewHeap()
	a := h.Resolve(h.NewString([]byte("a"))).(*StringObj)
	b := h.Resolve(h.NewString([]byte("b"))).(*StringObj)
	c := h.Resolve(h.NewString([]byte("c"))).(*StringObj)
	v := h.ConcatStrings([]*StringObj{a, b, c})
	require.Equal(t, "abc", h.Resolve(v).(*StringObj).String())
}
