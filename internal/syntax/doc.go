// Package syntax provides an incremental syntax-tokenization layer for a
// line-oriented text buffer: given a buffer of lines and a Grammar that can
// tokenize one line from an opaque rule-stack, a TokenizationEngine maintains
// a per-row cache of TokenizedLine values and progressively re-tokenizes rows
// invalidated by edits or grammar changes in bounded background chunks, until
// a fixed point is reached.
//
// The hard part is the combination: a cooperative incremental scheduler with
// bounded work units and fixed-point detection (engine.go), a cache keyed by
// row number that must stay correct under inserts, deletes and shifted rows
// (invalidrows.go), a stateful propagation algorithm driven by equality of
// opaque rule-stacks across line boundaries (rulestack.go, fold.go), a compact
// interleaved tag stream representing span lengths and balanced scope
// push/pop events (tags.go), and queries that must interpret that tag stream
// correctly even against partially-tokenized state (queries.go).
package syntax
