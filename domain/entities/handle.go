package entities

import "github.com/google/uuid"

// Handle is an opaque token referencing a plugin-owned instance.
// The host holds it only as a capability token and never dereferences it.
type Handle string

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	return string(h)
}

// IsZero reports whether the handle is empty.
func (h Handle) IsZero() bool {
	return h == ""
}
