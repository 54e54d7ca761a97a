package score

import (
	"fmt"
	"strings"
)

// Lifetime classifies why a rhythm slot exists.
type Lifetime int

const (
	// Explicit slots were created by a user edit.
	Explicit Lifetime = iota
	// Automatic slots are filler rests inserted by the rhythm core.
	Automatic
	// Hidden slots are filler rests that are not drawn (pickup measures).
	Hidden
	// Temporary slots are previews that have not been committed.
	Temporary
)

// String returns the lowercase name used in edits and the store.
func (l Lifetime) String() string {
	switch l {
	case Explicit:
		return "explicit"
	case Automatic:
		return "automatic"
	case Hidden:
		return "hidden"
	case Temporary:
		return "temporary"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// ParseLifetime parses a lifetime name. The empty string is Explicit.
func ParseLifetime(s string) (Lifetime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explicit":
		return Explicit, nil
	case "automatic":
		return Automatic, nil
	case "hidden":
		return Hidden, nil
	case "temporary":
		return Temporary, nil
	}
	return 0, &ScoreError{
		Code:    ErrCodeInvalidLifetime,
		Message: fmt.Sprintf("unknown lifetime %q", s),
	}
}

// Filler reports whether l marks a slot the rhythm core inserted.
func (l Lifetime) Filler() bool {
	return l == Automatic || l == Hidden
}
