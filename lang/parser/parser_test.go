package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/parser"
	"github.com/mna/luaj/lang/reader"
	"github.com/mna/luaj/lang/value"
)

func parse(t *testing.T, src string) (*value.FuncProto, *value.Heap) {
	t.Helper()
	heap := value.NewHeap()
	proto, err := parser.Parse(reader.NewBytes([]byte(src)), heap, "test")
	require.NoError(t, err)
	require.NotNil(t, proto)
	return proto, heap
}

func ops(proto *value.FuncProto) []code.Op {
	out := make([]code.Op, len(proto.Ins))
	for i, ins := range proto.Ins {
		out[i] = ins.Op()
	}
	return out
}

func TestParseEmptyChunk(t *testing.T) {
	proto, _ := parse(t, "")
	require.Len(t, proto.Ins, 1)
	assert.Equal(t, code.RET0, proto.Ins[0].Op())
}

func TestParseLocalConstantFold(t *testing.T) {
	proto, _ := parse(t, "local x = 1 + 2")
	// constant folding means no arithmetic opcode is ever emitted, just the
	// load of the folded constant followed by the implicit return.
	for _, op := range ops(proto) {
		assert.NotEqual(t, code.ADDVV, op)
		assert.NotEqual(t, code.ADDVN, op)
	}
}

func TestParseEqualityConstantFold(t *testing.T) {
	proto, _ := parse(t, "local x = 1 == 1")
	// constant folding means the comparison is resolved at compile time:
	// just the folded KPRIM followed by the implicit return, no EQ opcode
	// or its paired JMP.
	require.Len(t, proto.Ins, 2)
	assert.Equal(t, code.KPRIM, proto.Ins[0].Op())
	for _, op := range ops(proto) {
		assert.NotEqual(t, code.EQVV, op)
		assert.NotEqual(t, code.EQVN, op)
		assert.NotEqual(t, code.JMP, op)
	}
}

func TestParseOrderedComparisonConstantFold(t *testing.T) {
	proto, _ := parse(t, "local x = 3 < 4")
	require.Len(t, proto.Ins, 2)
	assert.Equal(t, code.KPRIM, proto.Ins[0].Op())
	for _, op := range ops(proto) {
		assert.NotEqual(t, code.LTVV, op)
		assert.NotEqual(t, code.LTVN, op)
		assert.NotEqual(t, code.JMP, op)
	}
}

func TestParseWhileLoop(t *testing.T) {
	proto, _ := parse(t, `
local i = 0
while i < 10 do
  i = i + 1
end
`)
	found := false
	for _, op := range ops(proto) {
		if op == code.JMP {
			found = true
		}
	}
	assert.True(t, found, "expected a backward JMP closing the loop")
}

func TestParseShortCircuitAndOr(t *testing.T) {
	proto, _ := parse(t, "local a = true and false or true")
	assert.Equal(t, code.RET0, proto.Ins[len(proto.Ins)-1].Op())
}

func TestParseRightAssociativeExponent(t *testing.T) {
	// 2^3^2 should parse as 2^(3^2): constant-folds to 512 either way, but if
	// it were left-associative it would fold to (2^3)^2 = 64 instead.
	proto, _ := parse(t, "local x = 2^3^2")
	require.NotEmpty(t, proto.K)
	found512 := false
	for _, k := range proto.K {
		if k.IsNumber() && k.Float() == 512 {
			found512 = true
		}
	}
	assert.True(t, found512, "expected 2^3^2 to fold to 512 (right-associative)")
}

func TestParseMultiReturnAdjustAssign(t *testing.T) {
	proto, _ := parse(t, `
local function f(a, b) return a + 1, b + 2, a + 3 end
local x, y, z, w = f(1, 2)
`)
	callIdx := -1
	for i, ins := range proto.Ins {
		if ins.Op() == code.CALL {
			callIdx = i
		}
	}
	require.NotEqual(t, -1, callIdx, "expected a CALL instruction for f(1, 2)")
	// nvars(4) - nexprs(1) + 1 = 4 expected results.
	assert.EqualValues(t, 4, proto.Ins[callIdx].C())
}

func TestParseLocalFunctionWithIfReturn(t *testing.T) {
	proto, _ := parse(t, `
local function fact(n)
  if n == 0 then
    return 1
  end
  return n
end
`)
	require.NotEmpty(t, proto.K)
}

func TestParseReturnForcesContiguousSlots(t *testing.T) {
	proto, heap := parse(t, `
local function f()
  return 1, 2, 3
end
`)
	require.NotEmpty(t, proto.K)
	var fnProto *value.FuncProto
	for _, k := range proto.K {
		if k.IsPointer() {
			if p, ok := heap.Resolve(k).(*value.FuncProto); ok {
				fnProto = p
			}
		}
	}
	require.NotNil(t, fnProto)
	found := false
	for _, ins := range fnProto.Ins {
		if ins.Op() == code.RET {
			found = true
			assert.EqualValues(t, 3, ins.D())
		}
	}
	assert.True(t, found, "expected a multi-value RET instruction")
}

func TestParseBreakOutsideLoopIsSyntaxError(t *testing.T) {
	heap := value.NewHeap()
	_, err := parser.Parse(reader.NewBytes([]byte("break")), heap, "test")
	require.Error(t, err)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "break outside a loop")
}

func TestParseUndefinedNameIsSyntaxError(t *testing.T) {
	heap := value.NewHeap()
	_, err := parser.Parse(reader.NewBytes([]byte("local x = y")), heap, "test")
	require.Error(t, err)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "undefined name")
}

func TestParseTruncatedChunkIsSyntaxError(t *testing.T) {
	heap := value.NewHeap()
	_, err := parser.Parse(reader.NewBytes([]byte("local")), heap, "test")
	require.Error(t, err)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func TestParseTooManyLocalsOverflows(t *testing.T) {
	var src string
	for i := 0; i < 300; i++ {
		src += "local v" + itoa(i) + " = 0\n"
	}
	heap := value.NewHeap()
	_, err := parser.Parse(reader.NewBytes([]byte(src)), heap, "test")
	require.Error(t, err)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "too many local variables")
}

func TestParseIfElseIfElse(t *testing.T) {
	proto, _ := parse(t, `
local x = 1
if x == 1 then
  x = 2
elseif x == 2 then
  x = 3
else
  x = 4
end
`)
	jmpCount := 0
	for _, op := range ops(proto) {
		if op == code.JMP {
			jmpCount++
		}
	}
	// each of the two non-final clauses emits an exit jump past the chain.
	assert.GreaterOrEqual(t, jmpCount, 2)
}

func TestParseRepeatUntilKeepsLocalsInScope(t *testing.T) {
	proto, _ := parse(t, `
local n = 0
repeat
  local done = n >= 3
  n = n + 1
until done
`)
	require.NotEmpty(t, proto.Ins)
}
