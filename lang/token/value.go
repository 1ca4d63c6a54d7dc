package token

// Value carries the payload of a scanned token alongside its Token kind:
// position, raw source text and, for literals, the decoded number or
// string.
type Value struct {
	Pos    Pos
	Raw    string  // verbatim source text of the token
	Num    float64 // decoded value, for NUMBER
	String string  // decoded value (unescaped), for STRING and IDENT
}

// Literal returns a human-friendly rendering of the token's value for use in
// "found X" error messages, or "" if tok carries no interesting literal.
func (tok Token) Literal(v Value) string {
	switch tok {
	case IDENT:
		return v.String
	case NUMBER:
		return v.Raw
	case STRING:
		return v.Raw
	}
	return ""
}
