package syntax

import "strings"

// ScopeID is an opaque handle to a scope-open tag, as produced by a Grammar's
// StartIDForScope. It is the value pushed onto a scope stack by a scope-open
// tag, and id-1 is the matching scope-close tag.
type ScopeID int32

// ScopeDescriptor is an ordered sequence of dotted scope names, outermost
// scope first, as returned by scope-descriptor queries.
type ScopeDescriptor []string

// String renders the descriptor the way it is conventionally displayed:
// space-separated, outermost first.
func (d ScopeDescriptor) String() string {
	return strings.Join(d, " ")
}

// ScopeNames resolves a sequence of scope ids to their dotted names via g,
// silently dropping any id the grammar no longer recognizes.
func ScopeNames(g Grammar, ids []ScopeID) ScopeDescriptor {
	if g == nil {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := g.ScopeForID(id); ok {
			names = append(names, name)
		}
	}
	return ScopeDescriptor(names)
}

// idAllocator hands out stable, process-local scope ids for a grammar that
// discovers scope names lazily (e.g. from matched patterns) rather than from
// a fixed table. Open ids are negative and odd, decreasing; the matching
// close id is always open-1 (negative and even), so Tag.MatchingOpen's
// close+1 recovers the open id.
type idAllocator struct {
	nextOpen int32
	byName   map[string]ScopeID
	byID     map[ScopeID]string
}

func newIDAllocator() *idAllocator {
	return &idAllocator{
		nextOpen: -1,
		byName:   make(map[string]ScopeID),
		byID:     make(map[ScopeID]string),
	}
}

func (a *idAllocator) openID(name string) ScopeID {
	if id, ok := a.byName[name]; ok {
		return id
	}
	open := ScopeID(a.nextOpen)
	closeTag := open - 1
	a.nextOpen -= 2
	a.byName[name] = open
	a.byID[open] = name
	a.byID[closeTag] = name
	return open
}

// lookupOpenID is the read-only half of openID: it never allocates, so it is
// safe to call while holding only a read lock. Callers that need to tokenize
// against a scope that might not exist yet must allocate it first, under a
// write lock, via openID.
func (a *idAllocator) lookupOpenID(name string) (ScopeID, bool) {
	id, ok := a.byName[name]
	return id, ok
}

func (a *idAllocator) closeID(name string) ScopeID {
	return a.openID(name) - 1
}

func (a *idAllocator) scopeForID(id ScopeID) (string, bool) {
	name, ok := a.byID[id]
	return name, ok
}

func (a *idAllocator) startIDForScope(name string) (ScopeID, bool) {
	id, ok := a.byName[name]
	if !ok {
		return 0, false
	}
	return id, true
}

func (a *idAllocator) endIDForScope(name string) (ScopeID, bool) {
	id, ok := a.byName[name]
	if !ok {
		return 0, false
	}
	return id - 1, true
}
