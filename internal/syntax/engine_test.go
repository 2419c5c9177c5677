package syntax

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/dshills/synctoken/internal/event"
	"github.com/dshills/synctoken/internal/event/events"
)

func newTestEngine(t *testing.T, lines []string) (*TokenizationEngine, *fakeTextBuffer) {
	buf := newFakeTextBuffer(lines)
	e := NewTokenizationEngine(context.Background(), buf, nil, Options{})
	t.Cleanup(e.Destroy)
	return e, buf
}

// Scenario A: single-line insert under a null grammar tokenizes synchronously.
func TestScenarioANullGrammarIsSynchronouslyComplete(t *testing.T) {
	e, _ := newTestEngine(t, []string{"abc", "def"})

	if !e.IsFullyTokenized() {
		t.Fatal("expected a null-grammar engine to be fully tokenized immediately")
	}
	if !e.invalidRows.IsEmpty() {
		t.Errorf("expected no invalid rows, got %v", e.invalidRows.Rows())
	}

	rootOpen, ok := e.grammar.StartIDForScope(e.grammar.ScopeName())
	if !ok {
		t.Fatal("expected the null grammar to register its root scope")
	}

	for row := uint32(0); row < 2; row++ {
		line := e.TokenizedLineForRow(row)
		if line == nil {
			t.Fatalf("row %d: expected a tokenized line", row)
		}
		tokens := line.Tokens()
		if len(tokens) != 1 {
			t.Fatalf("row %d: expected exactly one root-scope span, got %d tokens", row, len(tokens))
		}
		if tokens[0].EndColumn-tokens[0].StartColumn != 3 {
			t.Errorf("row %d: expected the span to cover 3 columns, got [%d,%d)", row, tokens[0].StartColumn, tokens[0].EndColumn)
		}
		if !containsScope(tokens[0].Scopes, rootOpen) {
			t.Errorf("row %d: expected the span's scope stack to contain the root scope", row)
		}
	}
}

// Scenario B: an edit that removes a multi-line comment's opening delimiter
// must clear the open-comment scope from every row it used to cover.
func TestScenarioBSpillPropagation(t *testing.T) {
	g := NewPatternGrammar("Block Comments", "source.stub")
	g.AddMultiline("comment.block", regexp.MustCompile(`/\*`), regexp.MustCompile(`\*/`))
	commentOpen, _ := g.StartIDForScope("comment.block")

	e, buf := newTestEngine(t, []string{"/*", "foo", "*/", "bar"})
	e.SetGrammar(g)
	drainChunks(e, 50)

	if !containsScope(e.TokenizedLineForRow(1).OpenScopes(), commentOpen) {
		t.Error("expected row 1 to open inside the comment before the edit")
	}
	if !containsScope(e.TokenizedLineForRow(2).OpenScopes(), commentOpen) {
		t.Error("expected row 2 to open inside the comment before the edit")
	}
	if containsScope(e.TokenizedLineForRow(3).OpenScopes(), commentOpen) {
		t.Error("expected row 3 to not open inside the comment before the edit")
	}

	buf.replaceLines(0, 0, []string{"x"})
	drainChunks(e, 50)

	if containsScope(e.TokenizedLineForRow(1).OpenScopes(), commentOpen) {
		t.Error("expected row 1 to no longer open inside the comment after removing the opening delimiter")
	}
	if containsScope(e.TokenizedLineForRow(2).OpenScopes(), commentOpen) {
		t.Error("expected row 2 to no longer open inside the comment after removing the opening delimiter")
	}
	if !e.IsFullyTokenized() {
		t.Error("expected the engine to reach a fixed point after the edit")
	}
}

// An unmatched scope-close tag must abort folding and report a diagnostic
// carrying the buffer's full contents, per the assertion hook contract.
func TestOpenScopesForRowPopulatesBufferContentsOnUnmatchedClose(t *testing.T) {
	g := newTestGrammar()
	bogusOpen := g.idAlloc.openID("bogus.scope")
	g.tokenize = func(text string, _ RuleStack, first bool) ([]Tag, RuleStack) {
		if first {
			return []Tag{Tag(bogusOpen - 1)}, stubRuleStack{}
		}
		n := len([]rune(text))
		if n == 0 {
			return nil, stubRuleStack{}
		}
		return []Tag{Tag(n)}, stubRuleStack{}
	}

	var got Diagnostic
	fired := 0
	buf := newFakeTextBuffer([]string{"first", "second"})
	e := NewTokenizationEngine(context.Background(), buf, nil, Options{
		AssertHook: func(d Diagnostic) {
			got = d
			fired++
		},
	})
	defer e.Destroy()
	e.SetGrammar(g)
	drainChunks(e, 10)

	if fired != 1 {
		t.Fatalf("expected the hook to fire exactly once, got %d", fired)
	}
	if got.BufferContents != "first\nsecond" {
		t.Errorf("expected BufferContents to carry the full buffer text, got %q", got.BufferContents)
	}
	if got.UnmatchedScope != "bogus.scope" {
		t.Errorf("expected UnmatchedScope %q, got %q", "bogus.scope", got.UnmatchedScope)
	}
}

// Scenario C: an edit whose end rule-stack matches its pre-edit rule-stack
// must not spill invalidation past the edited row.
func TestScenarioCFixedPointShortCircuit(t *testing.T) {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "same"
	}
	e, buf := newTestEngine(t, lines)
	e.SetGrammar(stubGrammar{})
	drainChunks(e, 50)
	if !e.IsFullyTokenized() {
		t.Fatal("expected initial tokenization to reach a fixed point")
	}

	buf.replaceLines(0, 0, []string{"same"})

	if !e.invalidRows.IsEmpty() {
		t.Errorf("expected no rows invalidated past row 0, got %v", e.invalidRows.Rows())
	}
	if !e.IsFullyTokenized() {
		t.Error("expected the engine to remain fully tokenized after a no-op-shaped edit")
	}
}

// Scenario D: a freshly constructed engine drains a large buffer in bounded
// chunks and emits exactly one completion event.
func TestScenarioDChunkedBackgroundDrain(t *testing.T) {
	bus := event.NewBus()
	if err := bus.Start(); err != nil {
		t.Fatalf("failed to start bus: %v", err)
	}
	defer bus.Stop(context.Background())
	pub := event.NewPublisher(bus, "test")
	sub := event.NewSubscriber(bus)
	defer sub.Close()

	var mu sync.Mutex
	tokenizedCount := 0
	_, err := sub.SubscribeFunc(events.TopicSyntaxTokenized, event.HandlerFunc(func(context.Context, any) error {
		mu.Lock()
		tokenizedCount++
		mu.Unlock()
		return nil
	}))
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line"
	}
	buf := newFakeTextBuffer(lines)
	e := NewTokenizationEngine(context.Background(), buf, pub, Options{ChunkSize: 20})
	defer e.Destroy()
	e.SetGrammar(stubGrammar{})

	chunks := 0
	lastMin := uint32(0)
	for !e.IsFullyTokenized() {
		rowsBefore := e.invalidRows.Rows()
		e.tokenizeNextChunk()
		chunks++
		if chunks > 20 {
			t.Fatal("did not converge within 20 chunks")
		}
		if len(rowsBefore) > 0 {
			advance := rowsBefore[0] - lastMin
			if advance > 20 {
				t.Errorf("chunk %d: invalid row min advanced by %d, more than chunkSize 20", chunks, advance)
			}
			lastMin = rowsBefore[0]
		}
	}

	if chunks < 5 {
		t.Errorf("expected at least 5 chunk invocations for 100 lines at chunkSize 20, got %d", chunks)
	}

	mu.Lock()
	count := tokenizedCount
	mu.Unlock()
	if count != 1 {
		t.Errorf("expected exactly one did-tokenize event, got %d", count)
	}
}

func TestEngineCacheLengthMatchesBufferAfterEdits(t *testing.T) {
	e, buf := newTestEngine(t, []string{"a", "b", "c"})
	drainChunks(e, 10)

	buf.replaceLines(1, 1, []string{"x", "y", "z"})
	drainChunks(e, 10)

	if len(e.tokenizedLines) != int(buf.LineCount()) {
		t.Errorf("expected cache length %d to match buffer line count, got %d", buf.LineCount(), len(e.tokenizedLines))
	}
}

func TestEngineInvalidRowsShapeStaysInBounds(t *testing.T) {
	e, buf := newTestEngine(t, []string{"a", "b", "c", "d", "e"})
	e.SetGrammar(stubGrammar{})

	buf.replaceLines(4, 4, []string{"z"})

	lastRow := uint32(e.lastRowLocked())
	for _, r := range e.invalidRows.Rows() {
		if r > lastRow {
			t.Errorf("expected every invalid row to be <= lastRow %d, found %d", lastRow, r)
		}
	}
	rows := e.invalidRows.Rows()
	for i := 1; i < len(rows); i++ {
		if rows[i] <= rows[i-1] {
			t.Errorf("expected invalid rows sorted ascending with no duplicates, got %v", rows)
		}
	}
}

func TestEngineDestroyClearsState(t *testing.T) {
	e, _ := newTestEngine(t, []string{"a", "b"})
	e.Destroy()

	if e.TokenizedLineForRow(0) != nil {
		t.Error("expected a destroyed engine to return no tokenized lines")
	}
}

func containsScope(scopes []ScopeID, want ScopeID) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
