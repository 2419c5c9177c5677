package syntax

import "log"

// Diagnostic carries the context attached to an invariant violation observed
// while folding a tag stream: an unmatched scope-close tag.
type Diagnostic struct {
	Message        string
	GrammarScope   string
	UnmatchedScope string
	BufferPath     string
	BufferContents string
}

// AssertHook receives invariant violations. Folding of the offending line is
// always aborted regardless of what the hook does; the hook is purely
// observational.
type AssertHook func(Diagnostic)

// DefaultAssertHook logs the diagnostic via the standard logger. Callers
// embedding the engine in a larger application typically replace this with
// their own structured logger.
func DefaultAssertHook(d Diagnostic) {
	log.Printf("syntax: %s (grammar=%q unmatchedScope=%q buffer=%q)",
		d.Message, d.GrammarScope, d.UnmatchedScope, d.BufferPath)
}
