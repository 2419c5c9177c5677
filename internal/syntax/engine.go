package syntax

import (
	"context"
	"sync"

	"github.com/dshills/synctoken/internal/event"
	"github.com/dshills/synctoken/internal/event/events"
	"github.com/dshills/synctoken/internal/event/topic"
)

// TokenizationEngine is the incremental scheduler: it maintains a per-row
// cache of TokenizedLine values bound to one TextBuffer and one Grammar,
// progressively re-tokenizing rows invalidated by edits or grammar changes
// in bounded background chunks until a fixed point is reached.
//
// All public methods are safe for concurrent use. Unlike the single-threaded
// cooperative model this type is specified against, Go gives background
// chunks their own goroutine; a mutex stands in for the single-thread
// run-to-completion guarantee the spec assumes, and every method still
// observes edits and queries in a consistent order.
type TokenizationEngine struct {
	mu sync.Mutex

	ctx       context.Context
	buffer    TextBuffer
	publisher *event.Publisher
	opts      Options

	grammar    Grammar
	grammarSub Disposable
	bufferSub  Disposable

	tokenizedLines []*TokenizedLine
	invalidRows    *InvalidRowSet

	alive          bool
	visible        bool
	pendingChunk   bool
	fullyTokenized bool
}

// NewTokenizationEngine binds a new engine to buf, starting with the null
// grammar. Call SetGrammar to attach a real grammar and begin tokenizing.
func NewTokenizationEngine(ctx context.Context, buf TextBuffer, publisher *event.Publisher, opts Options) *TokenizationEngine {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &TokenizationEngine{
		ctx:       ctx,
		buffer:    buf,
		publisher: publisher,
		opts:      opts.withDefaults(),
		alive:     true,
		grammar:   NewNullGrammar(),
	}
	e.mu.Lock()
	e.retokenizeLinesLocked()
	e.mu.Unlock()
	e.bufferSub = buf.OnDidChange(e.BufferDidChange)
	return e
}

func publish[T any](e *TokenizationEngine, t topic.Topic, payload T) {
	if e.publisher == nil {
		return
	}
	_ = event.PublishEventSync(e.ctx, e.publisher, t, payload)
}

// SetGrammar replaces the active grammar. A nil grammar, or one identical to
// the current grammar, is a no-op.
func (e *TokenizationEngine) SetGrammar(g Grammar) {
	if g == nil {
		return
	}
	e.mu.Lock()
	if g == e.grammar {
		e.mu.Unlock()
		return
	}
	if e.grammarSub != nil {
		e.grammarSub.Dispose()
	}
	e.grammar = g
	e.grammarSub = g.OnDidUpdate(func() { e.onGrammarUpdated() })
	completed := e.retokenizeLinesLocked()
	e.mu.Unlock()

	publish(e, events.TopicSyntaxGrammarChanged, events.SyntaxGrammarChanged{
		BufferID:    e.buffer.ID(),
		GrammarName: g.Name(),
		ScopeName:   g.ScopeName(),
	})
	if completed {
		publish(e, events.TopicSyntaxTokenized, events.SyntaxTokenized{BufferID: e.buffer.ID()})
	}
}

func (e *TokenizationEngine) onGrammarUpdated() {
	e.mu.Lock()
	completed := e.retokenizeLinesLocked()
	e.mu.Unlock()
	if completed {
		publish(e, events.TopicSyntaxTokenized, events.SyntaxTokenized{BufferID: e.buffer.ID()})
	}
}

// SetVisible toggles whether this engine should spend time tokenizing in the
// background. Becoming visible with an active, non-large-file grammar kicks
// the scheduler.
func (e *TokenizationEngine) SetVisible(visible bool) {
	e.mu.Lock()
	e.visible = visible
	started := visible && e.tokenizeInBackgroundLocked()
	e.mu.Unlock()
	if started {
		go e.tokenizeNextChunk()
	}
}

// Destroy releases subscriptions and clears the cache. Any chunk already
// scheduled becomes a no-op.
func (e *TokenizationEngine) Destroy() {
	e.mu.Lock()
	e.alive = false
	if e.grammarSub != nil {
		e.grammarSub.Dispose()
		e.grammarSub = nil
	}
	if e.bufferSub != nil {
		e.bufferSub.Dispose()
		e.bufferSub = nil
	}
	e.tokenizedLines = nil
	e.invalidRows = NewInvalidRowSet()
	e.mu.Unlock()
}

// IsFullyTokenized reports whether every row is tokenized and none are invalid.
func (e *TokenizationEngine) IsFullyTokenized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fullyTokenized
}

// Grammar returns the engine's active grammar, for callers that need to
// resolve scope ids from a TokenizedLine's tokens into scope names.
func (e *TokenizationEngine) Grammar() Grammar {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grammar
}

func (e *TokenizationEngine) isNullGrammarLocked() bool {
	_, ok := e.grammar.(*NullGrammar)
	return ok
}

func (e *TokenizationEngine) lastRowLocked() int {
	n := len(e.tokenizedLines)
	if n == 0 {
		return 0
	}
	return n - 1
}

// retokenizeLinesLocked resets the cache to buffer.LineCount() empty slots
// and returns whether tokenization completed synchronously (large-file mode
// or the null grammar).
func (e *TokenizationEngine) retokenizeLinesLocked() bool {
	n := int(e.buffer.LineCount())
	e.tokenizedLines = make([]*TokenizedLine, n)
	e.invalidRows = NewInvalidRowSet()

	if e.opts.LargeFileMode || e.isNullGrammarLocked() {
		e.fullyTokenized = true
		return true
	}
	e.fullyTokenized = false
	if n > 0 {
		e.invalidateRowLocked(0)
	}
	return false
}

func (e *TokenizationEngine) tokenizeInBackgroundLocked() bool {
	if e.pendingChunk || !e.visible || !e.alive {
		return false
	}
	e.pendingChunk = true
	return true
}

// tokenizeInBackground is the debounced entry point: kicks exactly one
// background chunk if none is already pending.
func (e *TokenizationEngine) tokenizeInBackground() {
	e.mu.Lock()
	started := e.tokenizeInBackgroundLocked()
	e.mu.Unlock()
	if started {
		go e.tokenizeNextChunk()
	}
}

func (e *TokenizationEngine) invalidateRowLocked(row int) {
	if row < 0 || row >= len(e.tokenizedLines) {
		return
	}
	e.invalidRows.Insert(uint32(row))
	e.fullyTokenized = false
	if e.tokenizeInBackgroundLocked() {
		go e.tokenizeNextChunk()
	}
}

// ruleStackAtRow returns the rule-stack produced at end-of-line row, or nil
// if row is out of range or not yet tokenized.
func (e *TokenizationEngine) ruleStackAtRowLocked(row int) RuleStack {
	if row < 0 || row >= len(e.tokenizedLines) {
		return nil
	}
	line := e.tokenizedLines[row]
	if line == nil {
		return nil
	}
	return line.RuleStack()
}

// openScopesForRowLocked computes the scope stack active at the start of
// row by folding row-1's open scopes over row-1's tags. Returns nil if row-1
// has not yet been tokenized (row==0 is conventionally empty).
func (e *TokenizationEngine) openScopesForRowLocked(row int) []ScopeID {
	if row <= 0 || row-1 >= len(e.tokenizedLines) {
		return nil
	}
	prev := e.tokenizedLines[row-1]
	if prev == nil {
		return nil
	}
	hook := e.opts.AssertHook
	return FoldScopes(prev.OpenScopes(), prev.Tags(), func(closeTag Tag, want ScopeID) {
		if hook == nil {
			return
		}
		unmatched, _ := e.grammar.ScopeForID(want)
		hook(Diagnostic{
			Message:        "unmatched scope-close tag while folding",
			GrammarScope:   e.grammar.ScopeName(),
			UnmatchedScope: unmatched,
			BufferPath:     e.buffer.Path(),
			BufferContents: e.buffer.GetText(),
		})
	})
}

func (e *TokenizationEngine) buildLineLocked(row int) *TokenizedLine {
	text := e.buffer.LineForRow(uint32(row))
	ending := e.buffer.LineEndingForRow(uint32(row))
	ruleStack := e.ruleStackAtRowLocked(row - 1)
	openScopes := e.openScopesForRowLocked(row)
	tags, next := e.grammar.TokenizeLine(text, ruleStack, row == 0)
	return NewTokenizedLine(text, ending, tags, next, openScopes, e.grammar)
}

func (e *TokenizationEngine) placeholderLineLocked(row int) *TokenizedLine {
	text := e.buffer.LineForRow(uint32(row))
	ending := e.buffer.LineEndingForRow(uint32(row))
	n := len([]rune(text))
	scope := e.grammar.ScopeName()
	open, ok := e.grammar.StartIDForScope(scope)
	if !ok {
		if n == 0 {
			return NewTokenizedLine(text, ending, nil, nil, nil, e.grammar)
		}
		return NewTokenizedLine(text, ending, []Tag{Tag(n)}, nil, nil, e.grammar)
	}
	closeID, _ := e.grammar.EndIDForScope(scope)
	tags := []Tag{Tag(open)}
	if n > 0 {
		tags = append(tags, Tag(n))
	}
	tags = append(tags, Tag(closeID))
	return NewTokenizedLine(text, ending, tags, nil, nil, e.grammar)
}

// TokenizedLineForRow returns the tokenized line for row, cached if
// available, else a freshly synthesized placeholder, stored for reuse until
// real tokenization reaches it. Returns nil if row is out of range.
func (e *TokenizationEngine) TokenizedLineForRow(row uint32) *TokenizedLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tokenizedLineForRowLocked(int(row))
}

func (e *TokenizationEngine) tokenizedLineForRowLocked(row int) *TokenizedLine {
	if row < 0 || row >= len(e.tokenizedLines) {
		return nil
	}
	if line := e.tokenizedLines[row]; line != nil {
		return line
	}
	placeholder := e.placeholderLineLocked(row)
	e.tokenizedLines[row] = placeholder
	return placeholder
}

// IsRowTokenized reports whether row already has a line cached. A
// placeholder stored by an earlier TokenizedLineForRow call counts as cached;
// the two are not distinguished. Does not itself trigger placeholder
// synthesis.
func (e *TokenizationEngine) IsRowTokenized(row uint32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := int(row)
	return r >= 0 && r < len(e.tokenizedLines) && e.tokenizedLines[r] != nil
}

// TokenizedLinesForRows returns TokenizedLineForRow for every row in
// [startRow, endRow].
func (e *TokenizationEngine) TokenizedLinesForRows(startRow, endRow uint32) []*TokenizedLine {
	if endRow < startRow {
		return nil
	}
	out := make([]*TokenizedLine, 0, endRow-startRow+1)
	for row := startRow; row <= endRow; row++ {
		out = append(out, e.TokenizedLineForRow(row))
	}
	return out
}

// BufferDidChange applies an edit to the tokenized cache: rebases pending
// invalidations, splices the cache, eagerly rebuilds the affected rows (up
// to one chunk), and invalidates a spill row if the rule-stack at the new
// end row changed.
func (e *TokenizationEngine) BufferDidChange(change ChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.alive {
		return
	}

	start := int(change.OldRange.Start.Line)
	end := int(change.OldRange.End.Line)
	delta := int(change.NewRange.End.Line) - int(change.OldRange.End.Line)
	oldCount := end - start + 1
	newCount := int(change.NewRange.End.Line) - int(change.NewRange.Start.Line) + 1

	e.invalidRows.Rebase(uint32(start), uint32(end), delta)

	previousEndStack := e.ruleStackAtRowLocked(end)

	e.spliceLocked(start, oldCount, newCount)

	if e.opts.LargeFileMode || e.isNullGrammarLocked() {
		return
	}

	newEnd := end + delta
	e.buildTokenizedLinesForRowsLocked(start, newEnd)

	newEndStack := e.ruleStackAtRowLocked(newEnd)
	if newEndStack != nil && !RuleStacksEqual(newEndStack, previousEndStack) {
		e.invalidateRowLocked(newEnd + 1)
	}
}

func (e *TokenizationEngine) spliceLocked(start, oldCount, newCount int) {
	if start > len(e.tokenizedLines) {
		start = len(e.tokenizedLines)
	}
	tailStart := start + oldCount
	if tailStart > len(e.tokenizedLines) {
		tailStart = len(e.tokenizedLines)
	}
	head := e.tokenizedLines[:start]
	tail := e.tokenizedLines[tailStart:]
	result := make([]*TokenizedLine, 0, len(head)+newCount+len(tail))
	result = append(result, head...)
	result = append(result, make([]*TokenizedLine, newCount)...)
	result = append(result, tail...)
	e.tokenizedLines = result
}

// buildTokenizedLinesForRowsLocked eagerly builds rows [start, end], up to
// one chunk's worth; rows beyond the chunk limit are left for the background
// scheduler.
func (e *TokenizationEngine) buildTokenizedLinesForRowsLocked(start, end int) {
	limit := start + e.opts.ChunkSize
	last := e.lastRowLocked()
	for row := start; row <= end && row <= last; row++ {
		if row >= limit {
			e.invalidateRowLocked(row)
			return
		}
		e.tokenizedLines[row] = e.buildLineLocked(row)
	}
}

// tokenizeNextChunk rebuilds up to opts.ChunkSize rows drawn from
// invalidRows, stopping each run at the first row whose rebuilt rule-stack
// equals what was previously cached there (a fixed point), or at the
// chunk's row budget, or at the last row.
func (e *TokenizationEngine) tokenizeNextChunk() {
	e.mu.Lock()

	e.pendingChunk = false
	if !e.alive || !e.buffer.IsAlive() {
		e.mu.Unlock()
		return
	}

	var emitted []events.SyntaxRangeInvalidated
	rowsRemaining := e.opts.ChunkSize
	last := e.lastRowLocked()

	for !e.invalidRows.IsEmpty() && rowsRemaining > 0 {
		startRow32, _ := e.invalidRows.PopMin()
		startRow := int(startRow32)
		if startRow > last {
			continue
		}
		row := startRow
		var endRow int
		filled := false
		for {
			previousStack := e.ruleStackAtRowLocked(row)
			e.tokenizedLines[row] = e.buildLineLocked(row)
			rowsRemaining--
			newStack := e.ruleStackAtRowLocked(row)
			if rowsRemaining == 0 {
				endRow, filled = row, false
				break
			}
			if row == last {
				endRow, filled = row, true
				break
			}
			if RuleStacksEqual(newStack, previousStack) {
				endRow, filled = row, true
				break
			}
			row++
		}
		e.invalidRows.ValidateUpTo(uint32(endRow))
		if !filled {
			e.invalidateRowLocked(endRow + 1)
		}
		emitted = append(emitted, events.SyntaxRangeInvalidated{
			BufferID: e.buffer.ID(),
			Range:    events.SyntaxRowRange{StartRow: uint32(startRow), EndRow: uint32(endRow + 1)},
		})
	}

	rescheduled := false
	completed := false
	if !e.invalidRows.IsEmpty() {
		rescheduled = e.tokenizeInBackgroundLocked()
	} else if !e.fullyTokenized {
		e.fullyTokenized = true
		completed = true
	}
	e.mu.Unlock()

	for _, ev := range emitted {
		publish(e, events.TopicSyntaxRangeInvalidated, ev)
	}
	if completed {
		publish(e, events.TopicSyntaxTokenized, events.SyntaxTokenized{BufferID: e.buffer.ID()})
	}
	if rescheduled {
		go e.tokenizeNextChunk()
	}
}
