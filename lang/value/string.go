package value

// StringObj is an immutable, length-prefixed heap string. Equality (as
// used by EQVS/NEQVS and Heap.Equal) compares length then bytes, never
// identity.
type StringObj struct {
	bytes []byte
}

var _ Object = (*StringObj)(nil)

func (s *StringObj) Tag() ObjTag { return TagString }

// Bytes returns the string's raw bytes. The caller must not modify the
// returned slice: StringObj is immutable once allocated.
func (s *StringObj) Bytes() []byte { return s.bytes }

// Len returns the number of bytes in the string.
func (s *StringObj) Len() int { return len(s.bytes) }

// String returns the Go string form of the bytes (a copy).
func (s *StringObj) String() string { return string(s.bytes) }

// Equal reports whether s and o have identical length and bytes.
func (s *StringObj) Equal(o *StringObj) bool {
	if s == o {
		return true
	}
	if len(s.bytes) != len(o.bytes) {
		return false
	}
	for i := range s.bytes {
		if s.bytes[i] != o.bytes[i] {
			return false
		}
	}
	return true
}

// ConcatStrings allocates a new StringObj holding the concatenation of the
// given string objects' bytes, in order, matching the CONCAT opcode's
// semantics (sum of lengths, one allocation, one memcpy pass per part).
func (h *Heap) ConcatStrings(parts []*StringObj) Value {
	n := 0
	for _, p := range parts {
		n += p.Len()
	}
	buf := make([]byte, 0, n)
	for _, p := range parts {
		buf = append(buf, p.bytes...)
	}
	return h.NewString(buf)
}
