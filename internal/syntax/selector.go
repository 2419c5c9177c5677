package syntax

import "strings"

// ScopeSelector is a predicate over a scope descriptor, pluggable so callers
// can supply a richer selector language; the core only depends on this
// interface.
type ScopeSelector interface {
	Matches(scopes ScopeDescriptor) bool
}

// DottedSelector is the built-in default selector: ".a.b.c" matches a scope
// stack whose dotted components, pooled across every scope on the stack, are
// a superset of {a, b, c}.
type DottedSelector struct {
	components []string
}

// ParseSelector parses a leading-dot dotted selector string.
func ParseSelector(selector string) DottedSelector {
	trimmed := strings.TrimPrefix(selector, ".")
	if trimmed == "" {
		return DottedSelector{}
	}
	return DottedSelector{components: strings.Split(trimmed, ".")}
}

// Matches implements ScopeSelector.
func (s DottedSelector) Matches(scopes ScopeDescriptor) bool {
	for _, want := range s.components {
		if !scopesContainComponent(scopes, want) {
			return false
		}
	}
	return true
}

func scopesContainComponent(scopes ScopeDescriptor, want string) bool {
	for _, scope := range scopes {
		for _, part := range strings.Split(scope, ".") {
			if part == want {
				return true
			}
		}
	}
	return false
}
