package value

import "fmt"

// ObjTag is the heap object header's type tag: the one-byte discriminator
// that lets a pointer Value recover the concrete type of the object it
// references, as the first byte of a heap object's C-layout analogue.
// Go's GC-tracked objects don't need a literal header byte to be decoded
// safely, so ObjTag is recovered via the Object interface's Tag method
// instead of a memory dereference — same invariant, safe implementation.
type ObjTag byte

const (
	TagString ObjTag = iota
	TagFunction
)

func (t ObjTag) String() string {
	switch t {
	case TagString:
		return "string"
	case TagFunction:
		return "function"
	default:
		return "object"
	}
}

// Object is implemented by every heap-allocated value: strings and
// function prototypes.
type Object interface {
	Tag() ObjTag
}

// Heap owns the arena of heap objects a State's values may point to. Each
// State (and each function prototype compiled against it) has its own
// Heap; nothing is shared between independently-running states.
type Heap struct {
	objects []Object
	// interned deduplicates string objects by content, the "permissible
	// optimisation" noted in the spec: identical byte sequences share one
	// Object, but EQVS/NEQVS always compare by content regardless.
	interned *StringInterner
}

// NewHeap creates an empty Heap with string interning enabled.
func NewHeap() *Heap {
	return &Heap{interned: NewStringInterner()}
}

func (h *Heap) alloc(o Object) Value {
	idx := len(h.objects)
	h.objects = append(h.objects, o)
	return pointer(uint32(idx))
}

// Resolve returns the heap object a pointer Value references. It panics if
// v is not a pointer Value or if it does not belong to this Heap.
func (h *Heap) Resolve(v Value) Object {
	if !v.IsPointer() {
		panic(fmt.Sprintf("value: Resolve called on non-pointer value (%s)", h.TypeName(v)))
	}
	idx := v.PointerIndex()
	if int(idx) >= len(h.objects) {
		panic("value: pointer value does not belong to this heap")
	}
	return h.objects[idx]
}

// NewString allocates (or returns an interned handle to) a string object
// with the given contents.
func (h *Heap) NewString(b []byte) Value {
	if v, ok := h.interned.lookup(b); ok {
		return v
	}
	s := &StringObj{bytes: append([]byte(nil), b...)}
	v := h.alloc(s)
	h.interned.store(s.bytes, v)
	return v
}

// NewFuncProto allocates a function prototype on the heap and returns both
// the owning Value and the prototype itself for the caller (normally the
// emitter) to populate.
func (h *Heap) NewFuncProto() (Value, *FuncProto) {
	fp := &FuncProto{}
	return h.alloc(fp), fp
}

// TypeName returns the static type name used in error messages and by the
// `type_name` predicate: "number", "nil", "boolean", "string", "function",
// "NaN" (only the exact canonical NaN bit pattern), or "object" as a
// fallback for any other heap object tag.
func (h *Heap) TypeName(v Value) string {
	switch {
	case v.IsNumber():
		if uint64(v) == qnanBits {
			return "NaN"
		}
		return "number"
	case v.IsPrimitive():
		if v.IsNil() {
			return "nil"
		}
		return "boolean"
	case v.IsPointer():
		return h.Resolve(v).Tag().String()
	default:
		return "object"
	}
}

// Equal reports value equality between a and b, following the language's
// comparison rules: primitives and numbers compare by bit pattern (NaN is
// never equal to anything, including itself); strings compare by content;
// everything else (functions) compares by identity (same heap handle).
func (h *Heap) Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.IsNaN() || b.IsNaN() {
			return false
		}
		return a.Float() == b.Float()
	}
	if a.IsPointer() && b.IsPointer() {
		oa, ob := h.Resolve(a), h.Resolve(b)
		if sa, ok := oa.(*StringObj); ok {
			if sb, ok := ob.(*StringObj); ok {
				return sa.Equal(sb)
			}
			return false
		}
		return a == b
	}
	return a == b
}
