package syntax

import (
	"strings"
	"sync"
)

// scopeClassCache is process-wide: the mapping from scope name to CSS class
// is pure and its key space is bounded by the union of every loaded
// grammar's scope vocabulary, so one lazily populated map serves every
// engine instance in the process.
var scopeClassCache sync.Map

// CSSClassForScope returns "syntax--a syntax--b syntax--c" for scope
// "a.b.c", computing and caching it on first use.
func CSSClassForScope(scope string) string {
	if v, ok := scopeClassCache.Load(scope); ok {
		return v.(string)
	}
	parts := strings.Split(scope, ".")
	classes := make([]string, len(parts))
	for i, p := range parts {
		classes[i] = "syntax--" + p
	}
	class := strings.Join(classes, " ")
	scopeClassCache.Store(scope, class)
	return class
}

// CSSClassForScopeID resolves id to its scope name via g and returns its CSS
// class, or "" if g does not recognize id.
func CSSClassForScopeID(g Grammar, id ScopeID) string {
	if g == nil {
		return ""
	}
	name, ok := g.ScopeForID(id)
	if !ok {
		return ""
	}
	return CSSClassForScope(name)
}
