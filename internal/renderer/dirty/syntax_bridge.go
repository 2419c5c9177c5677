package dirty

import (
	"context"

	"github.com/dshills/synctoken/internal/event"
	"github.com/dshills/synctoken/internal/event/events"
)

// SubscribeSyntaxInvalidation marks t dirty whenever a tokenization engine
// rebuilds or invalidates a row range, so a renderer driven by t redraws
// rows whose highlighting just changed without the caller wiring the two
// packages together by hand.
//
// bufferID restricts the subscription to one buffer's events; pass "" to
// react to every buffer on the bus (only sensible when t is scoped to a
// single-buffer view already).
func SubscribeSyntaxInvalidation(sub *event.Subscriber, t *Tracker, bufferID string) (event.Subscription, error) {
	return event.SubscribePayload(sub, events.TopicSyntaxRangeInvalidated, func(_ context.Context, payload events.SyntaxRangeInvalidated) error {
		if bufferID != "" && payload.BufferID != bufferID {
			return nil
		}
		if payload.Range.EndRow <= payload.Range.StartRow {
			return nil
		}
		t.MarkLines(payload.Range.StartRow, payload.Range.EndRow-1)
		return nil
	})
}
