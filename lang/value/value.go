// Package value implements the language's NaN-boxed value representation
// and the heap objects (strings, function prototypes) it can point to.
//
// Every Value fits in 64 bits. If the bit pattern is not a quiet NaN with
// its sign bit set, the value is a plain IEEE-754 double (Value.Float).
// Otherwise it is a tagged non-number: two bits select a variety (pointer
// or primitive), and the remaining bits carry either the primitive tag
// (nil, false, true) or a handle into a Heap's object table.
//
// Real pointers are not boxed directly: Go's garbage collector cannot see
// an address hidden inside a uint64, so the "pointer" variety instead
// stores an index into the owning Heap's object slice, which the GC does
// track. This mirrors the spec's own guidance for jump lists ("never a raw
// pointer, a plain recursion index") applied to the value representation.
package value

import "math"

// Value is a NaN-boxed 64-bit language value.
type Value uint64

const (
	signBit = uint64(1) << 63
	// qnanBits is the canonical positive quiet-NaN pattern: exponent all
	// ones, top mantissa bit (the quiet bit) set, all other bits zero.
	qnanBits = uint64(0x7FF8000000000000)

	varietyShift = 49
	varietyMask  = uint64(0x3) << varietyShift
	payloadMask  = (uint64(1) << varietyShift) - 1

	varietyPointer   = uint64(0)
	varietyPrimitive = uint64(1)
)

// Primitive tag payloads. Bit 0 ("falsy") is set for Nil and False and
// clear for True, so truthiness testing never has to branch on variety:
// any primitive value is falsy iff its low payload bit is set, and no
// other variety (number, pointer) ever carries the falsy bit.
const (
	primTrue  = uint64(0)
	primFalse = uint64(1)
	primNil   = uint64(3)
)

func tagged(variety, payload uint64) Value {
	return Value(qnanBits | signBit | variety<<varietyShift | (payload & payloadMask))
}

// Nil is the language's nil value.
func Nil() Value { return tagged(varietyPrimitive, primNil) }

// True is the language's boolean true value.
func True() Value { return tagged(varietyPrimitive, primTrue) }

// False is the language's boolean false value.
func False() Value { return tagged(varietyPrimitive, primFalse) }

// Bool returns True() or False() for the given Go bool.
func Bool(b bool) Value {
	if b {
		return True()
	}
	return False()
}

// Number returns the Value boxing the double f.
//
// Every NaN is stored as the canonical quiet NaN (qnanBits, sign bit
// clear): amd64 produces a sign-bit-set NaN for e.g. 0/0, a bit pattern
// this package would otherwise classify as a tagged non-number.
func Number(f float64) Value {
	if f != f {
		return Value(qnanBits)
	}
	return Value(math.Float64bits(f))
}

// pointer returns the Value referencing heap object index idx (a handle
// into some Heap's object table, not a real address).
func pointer(idx uint32) Value { return tagged(varietyPointer, uint64(idx)) }

func (v Value) bits() uint64 { return uint64(v) }

func (v Value) isTaggedNonNumber() bool {
	bits := v.bits()
	return bits&qnanBits == qnanBits && bits&signBit != 0
}

func (v Value) variety() uint64 { return (v.bits() & varietyMask) >> varietyShift }

func (v Value) payload() uint64 { return v.bits() & payloadMask }

// IsNumber reports whether v is an IEEE-754 double (including any NaN
// whose sign bit is clear).
func (v Value) IsNumber() bool { return !v.isTaggedNonNumber() }

// IsNaN reports whether v is a number holding any NaN bit pattern.
func (v Value) IsNaN() bool { return v.IsNumber() && math.IsNaN(math.Float64frombits(v.bits())) }

// IsPointer reports whether v is a tagged reference to a heap object.
func (v Value) IsPointer() bool { return v.isTaggedNonNumber() && v.variety() == varietyPointer }

// IsPrimitive reports whether v is one of nil, true or false.
func (v Value) IsPrimitive() bool { return v.isTaggedNonNumber() && v.variety() == varietyPrimitive }

// IsNil reports whether v is exactly Nil().
func (v Value) IsNil() bool { return v.IsPrimitive() && v.payload() == primNil }

// IsFalse reports whether v is exactly False().
func (v Value) IsFalse() bool { return v.IsPrimitive() && v.payload() == primFalse }

// IsTrue reports whether v is exactly True().
func (v Value) IsTrue() bool { return v.IsPrimitive() && v.payload() == primTrue }

// ComparesTrue reports whether v is truthy: everything is truthy except
// nil and false.
func (v Value) ComparesTrue() bool {
	return !(v.IsPrimitive() && v.payload()&1 == 1)
}

// Float returns v's double value. The caller must have checked IsNumber.
func (v Value) Float() float64 { return math.Float64frombits(v.bits()) }

// PointerIndex returns v's heap handle. The caller must have checked
// IsPointer.
func (v Value) PointerIndex() uint32 { return uint32(v.payload()) }

// Equal reports whether two Values have the same bit pattern (raw
// identity/primitive/number equality, not heap-object content equality;
// see Heap.Equal for the latter).
func (v Value) Equal(o Value) bool { return v == o }
