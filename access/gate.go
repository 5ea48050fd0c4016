package access

import "strings"

// IsGranted reports whether granted satisfies required.
//
// The decision is an OR across required: the set must hold the wildcard, the
// super-admin code, or at least one of the required codes. A requirement that
// is empty or only contains blank strings is no requirement and is granted.
func IsGranted(required []string, granted CodeSet) bool {
	wanted := 0
	for _, code := range required {
		if strings.TrimSpace(code) != "" {
			wanted++
		}
	}
	if wanted == 0 {
		return true
	}

	if granted.Universal() {
		return true
	}

	for _, code := range required {
		code = strings.TrimSpace(code)
		if code != "" && granted.Has(code) {
			return true
		}
	}
	return false
}

// Source supplies the code set a [Gate] evaluates against.
type Source interface {
	AccessCodes() CodeSet
}

// SourceFunc adapts a function to [Source].
type SourceFunc func() CodeSet

func (f SourceFunc) AccessCodes() CodeSet { return f() }

// Gate evaluates requirements against the live codes of a [Source]. It holds
// no decision state: each call reads the source again.
type Gate struct {
	source Source
}

// NewGate binds a gate to source. A nil source behaves as an empty set.
func NewGate(source Source) *Gate {
	return &Gate{source: source}
}

// Allow reports whether the source's current codes satisfy required.
func (g *Gate) Allow(required ...string) bool {
	var codes CodeSet
	if g != nil && g.source != nil {
		codes = g.source.AccessCodes()
	}
	return IsGranted(required, codes)
}

// Filter returns the items whose requirement is satisfied by granted, keeping
// their order. required may return nil for items without a requirement.
func Filter[T any](items []T, required func(T) []string, granted CodeSet) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var need []string
		if required != nil {
			need = required(item)
		}
		if IsGranted(need, granted) {
			out = append(out, item)
		}
	}
	return out
}

// HasRole reports whether roles contains any of wanted. An empty wanted list
// is satisfied by any role list.
func HasRole(roles []string, wanted ...string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		for _, r := range roles {
			if r == w {
				return true
			}
		}
	}
	return false
}
