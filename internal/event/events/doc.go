// Package events defines strongly-typed event payloads for the event bus.
//
// Each event type has a corresponding topic constant and payload struct.
// Currently this covers the syntax tokenization engine's own emissions:
// grammar changes, tokenization completion, and range invalidation.
//
// # Usage
//
// Events are created using the event.NewEvent function:
//
//	import (
//	    "github.com/dshills/synctoken/internal/event"
//	    "github.com/dshills/synctoken/internal/event/events"
//	)
//
//	evt := event.NewEvent(events.TopicSyntaxTokenized,
//	    events.SyntaxTokenized{BufferID: "buf-123"},
//	    "syntax",
//	)
//	bus.PublishSync(ctx, evt)
//
// # Topic Naming Convention
//
// Topics follow a hierarchical dot-notation: <module>.<entity>.<action>,
// e.g. "syntax.range.invalidated".
package events
