package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitives(t *testing.T) {
	require.True(t, Nil().IsNil())
	require.True(t, Nil().IsPrimitive())
	require.False(t, Nil().ComparesTrue())

	require.True(t, True().IsTrue())
	require.True(t, True().ComparesTrue())

	require.True(t, False().IsFalse())
	require.False(t, False().ComparesTrue())

	require.True(t, Bool(true).IsTrue())
	require.True(t, Bool(false).IsFalse())
}

func TestNumbers(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 3.14, math.Inf(1), math.Inf(-1)} {
		v := Number(f)
		require.True(t, v.IsNumber())
		require.False(t, v.IsPrimitive())
		require.False(t, v.IsPointer())
		require.True(t, v.ComparesTrue(), "numbers are always truthy")
		require.Equal(t, f, v.Float())
	}
}

func TestNaN(t *testing.T) {
	v := Number(math.NaN())
	require.True(t, v.IsNumber())
	require.True(t, v.IsNaN())
	require.True(t, v.ComparesTrue())
}

func TestArithmeticNeverProducesTagged(t *testing.T) {
	a, b := Number(0), Number(0)
	r := Number(a.Float() / b.Float()) // 0/0 -> NaN
	require.True(t, r.IsNumber(), "0/0 must still classify as a number, not a tagged value")
}

func TestDistinctFromNumbers(t *testing.T) {
	require.NotEqual(t, Number(0).bits(), Nil().bits())
	require.NotEqual(t, Number(0).bits(), True().bits())
	require.NotEqual(t, Number(0).bits(), False().bits())
}
