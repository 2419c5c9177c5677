package syntax

// RuleStack is a grammar's opaque continuation at a line boundary: its
// private record of which rules are active, to be handed back on the next
// line. The core never inspects a rule-stack's contents, only its identity.
//
// Equality is exposed via Key rather than "==" so that a grammar's state can
// be a non-comparable Go type (a slice or map of active rules) without the
// core risking a runtime panic comparing two RuleStack values directly.
type RuleStack interface {
	// Key returns a string that is equal for two rule-stacks iff the grammar
	// considers them the same state. This is the sole basis for fixed-point
	// detection in the background scheduler.
	Key() string
}

// RuleStacksEqual reports whether a and b are the same rule-stack state. A
// nil RuleStack (row not yet tokenized) is only equal to another nil.
func RuleStacksEqual(a, b RuleStack) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}
