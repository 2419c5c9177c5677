package syntax

// UnmatchedCloseFunc is invoked when folding hits a scope-close tag with no
// matching open on the stack. closeTag is the offending tag; wantOpen is the
// open id it was looking for.
type UnmatchedCloseFunc func(closeTag Tag, wantOpen ScopeID)

// FoldScopes computes the scope stack at end-of-line by applying a tag
// stream's push/pop events onto a starting stack. It is the sole source of
// truth for both the engine's inter-line propagation and any on-demand
// reconstruction of a line's end-of-line scope stack.
//
// On an unmatched close, the conservative rule applies: pop until a matching
// open is found or the stack empties. If it empties first, onUnmatchedClose
// is invoked (may be nil) and folding of the remainder of the tag stream is
// abandoned, returning the emptied stack.
func FoldScopes(starting []ScopeID, tags []Tag, onUnmatchedClose UnmatchedCloseFunc) []ScopeID {
	scopes := append([]ScopeID(nil), starting...)
	for _, t := range tags {
		switch {
		case t.IsSpan():
			continue
		case t.IsOpen():
			scopes = append(scopes, ScopeID(t))
		case t.IsClose():
			want := t.MatchingOpen()
			matched := -1
			for i := len(scopes) - 1; i >= 0; i-- {
				if scopes[i] == want {
					matched = i
					break
				}
			}
			if matched == -1 {
				if onUnmatchedClose != nil {
					onUnmatchedClose(t, want)
				}
				return scopes[:0]
			}
			scopes = scopes[:matched]
		}
	}
	return scopes
}

// popScope pops scopes from the top of the stack down to and including the
// first occurrence of want, silently leaving the stack untouched if want is
// not found. Used by queries that replay an already-folded tag stream, where
// corruption would already have been reported by FoldScopes at tokenization
// time.
func popScope(scopes []ScopeID, want ScopeID) []ScopeID {
	for i := len(scopes) - 1; i >= 0; i-- {
		if scopes[i] == want {
			return scopes[:i]
		}
	}
	return scopes
}
