package events

import "github.com/dshills/synctoken/internal/event/topic"

// Syntax tokenization event topics.
const (
	// TopicSyntaxGrammarChanged is published when a tokenized buffer's grammar changes.
	TopicSyntaxGrammarChanged topic.Topic = "syntax.grammar.changed"

	// TopicSyntaxTokenized is published exactly once per transition from
	// not-fully-tokenized to fully-tokenized.
	TopicSyntaxTokenized topic.Topic = "syntax.tokenized"

	// TopicSyntaxRangeInvalidated is published whenever a background chunk
	// rebuilds tokenized lines, describing the row range that changed.
	TopicSyntaxRangeInvalidated topic.Topic = "syntax.range.invalidated"
)

// SyntaxRowRange is a row-granular half-open range [StartRow, EndRow) used by
// syntax tokenization events. Unlike Range, it carries no column information:
// invalidation is always row-granular.
type SyntaxRowRange struct {
	StartRow uint32
	EndRow   uint32
}

// SyntaxGrammarChanged is published when a tokenized buffer's grammar changes.
type SyntaxGrammarChanged struct {
	// BufferID is the unique identifier of the buffer being tokenized.
	BufferID string

	// GrammarName is the name of the newly active grammar.
	GrammarName string

	// ScopeName is the root scope name of the newly active grammar.
	ScopeName string
}

// SyntaxTokenized is published when a buffer reaches a fully-tokenized fixed point.
type SyntaxTokenized struct {
	// BufferID is the unique identifier of the buffer being tokenized.
	BufferID string
}

// SyntaxRangeInvalidated is published once per background chunk, in
// increasing row order for that chunk.
type SyntaxRangeInvalidated struct {
	// BufferID is the unique identifier of the buffer being tokenized.
	BufferID string

	// Range is the row-granular range that was rebuilt or invalidated.
	Range SyntaxRowRange
}
