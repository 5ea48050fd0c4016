package access

import (
	"slices"
	"strings"
)

const (
	// Wildcard grants every capability.
	Wildcard = "*"
	// SuperAdmin grants every capability.
	SuperAdmin = "super_admin"
)

// CodeSet is an unordered set of capability codes. The zero value (nil) is an
// empty set and is safe to read.
type CodeSet map[string]struct{}

// NewCodeSet builds a set from codes. Blank codes are dropped and surrounding
// whitespace is trimmed.
func NewCodeSet(codes ...string) CodeSet {
	set := make(CodeSet, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

// Has reports whether code is a member of the set.
func (c CodeSet) Has(code string) bool {
	_, ok := c[code]
	return ok
}

// Len returns the number of codes in the set.
func (c CodeSet) Len() int {
	return len(c)
}

// Universal reports whether the set holds the wildcard or the super-admin code.
func (c CodeSet) Universal() bool {
	return c.Has(Wildcard) || c.Has(SuperAdmin)
}

// Codes returns the members in sorted order.
func (c CodeSet) Codes() []string {
	out := make([]string, 0, len(c))
	for code := range c {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy of the set.
func (c CodeSet) Clone() CodeSet {
	out := make(CodeSet, len(c))
	for code := range c {
		out[code] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same codes.
func (c CodeSet) Equal(other CodeSet) bool {
	if len(c) != len(other) {
		return false
	}
	for code := range c {
		if !other.Has(code) {
			return false
		}
	}
	return true
}

// Allows is shorthand for IsGranted(required, c).
func (c CodeSet) Allows(required ...string) bool {
	return IsGranted(required, c)
}
