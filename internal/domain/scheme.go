package domain

import (
	"errors"
	"fmt"
)

// Scheme identifies a request-admission policy.
type Scheme string

// Scheme constants
const (
	SchemeNoX402 Scheme = "no_x402" // passive wait for refill
	SchemeSync   Scheme = "sync"    // pay and block for settlement
	SchemeAsync  Scheme = "async"   // trust-gated optimistic payment
)

// ErrUnknownScheme is returned when parsing an unrecognised scheme tag.
var ErrUnknownScheme = errors.New("unknown scheme")

// AllSchemes returns every scheme in reporting order.
func AllSchemes() []Scheme {
	return []Scheme{SchemeNoX402, SchemeSync, SchemeAsync}
}

// ParseScheme converts a tag into a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeNoX402, SchemeSync, SchemeAsync:
		return Scheme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
}

// Order returns the scheme's position in AllSchemes, or len(AllSchemes) if unknown.
func (s Scheme) Order() int {
	for i, known := range AllSchemes() {
		if s == known {
			return i
		}
	}
	return len(AllSchemes())
}

func (s Scheme) String() string {
	return string(s)
}
