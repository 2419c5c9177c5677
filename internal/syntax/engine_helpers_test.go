package syntax

import (
	"strings"
	"sync"

	"github.com/dshills/synctoken/internal/engine/buffer"
)

// fakeTextBuffer is a minimal, test-only TextBuffer: an in-memory line list
// plus manual edit notification, so engine tests can drive bufferDidChange
// deterministically without a real rope-backed buffer.
type fakeTextBuffer struct {
	mu        sync.Mutex
	lines     []string
	listeners []func(ChangeEvent)
	alive     bool
}

func newFakeTextBuffer(lines []string) *fakeTextBuffer {
	return &fakeTextBuffer{lines: append([]string(nil), lines...), alive: true}
}

func (b *fakeTextBuffer) LineCount() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint32(len(b.lines))
}

func (b *fakeTextBuffer) LastRow() uint32 {
	n := b.LineCount()
	if n == 0 {
		return 0
	}
	return n - 1
}

func (b *fakeTextBuffer) LineForRow(row uint32) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines[row]
}

func (b *fakeTextBuffer) LineEndingForRow(uint32) buffer.LineEnding { return buffer.LineEndingLF }

func (b *fakeTextBuffer) IsRowBlank(row uint32) bool {
	return strings.TrimSpace(b.LineForRow(row)) == ""
}

func (b *fakeTextBuffer) NextNonBlankRow(row uint32) (uint32, bool) {
	for r := row + 1; r < b.LineCount(); r++ {
		if !b.IsRowBlank(r) {
			return r, true
		}
	}
	return 0, false
}

func (b *fakeTextBuffer) ClipPosition(p buffer.Point) buffer.Point {
	last := b.LastRow()
	if p.Line > last {
		p.Line = last
	}
	lineLen := uint32(len([]rune(b.LineForRow(p.Line))))
	if p.Column > lineLen {
		p.Column = lineLen
	}
	return p
}

func (b *fakeTextBuffer) Path() string { return "fake://buffer" }
func (b *fakeTextBuffer) ID() string   { return "fake-buffer" }

func (b *fakeTextBuffer) GetText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

func (b *fakeTextBuffer) IsAlive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive
}

func (b *fakeTextBuffer) OnDidChange(cb func(ChangeEvent)) Disposable {
	b.mu.Lock()
	b.listeners = append(b.listeners, cb)
	idx := len(b.listeners) - 1
	b.mu.Unlock()
	return disposeFunc(func() {
		b.mu.Lock()
		b.listeners[idx] = nil
		b.mu.Unlock()
	})
}

// replaceLines simulates an edit replacing rows [start, end] (inclusive)
// with newLines and notifies listeners with the resulting ChangeEvent.
func (b *fakeTextBuffer) replaceLines(start, end int, newLines []string) ChangeEvent {
	b.mu.Lock()
	oldEndCol := uint32(len([]rune(b.lines[end])))
	head := append([]string(nil), b.lines[:start]...)
	tail := append([]string(nil), b.lines[end+1:]...)
	b.lines = append(head, append(append([]string(nil), newLines...), tail...)...)
	newEndRow := start + len(newLines) - 1
	newEndCol := uint32(len([]rune(b.lines[newEndRow])))
	listeners := append([]func(ChangeEvent){}, b.listeners...)
	b.mu.Unlock()

	oldStart := buffer.Point{Line: uint32(start), Column: 0}
	oldEnd := buffer.Point{Line: uint32(end), Column: oldEndCol}
	newEnd := buffer.Point{Line: uint32(newEndRow), Column: newEndCol}

	change := ChangeEvent{
		OldRange: buffer.NewPointRange(oldStart, oldEnd),
		NewRange: buffer.NewPointRange(oldStart, newEnd),
	}
	for _, l := range listeners {
		if l != nil {
			l(change)
		}
	}
	return change
}

// stubRuleStack and stubGrammar model a grammar whose state never actually
// depends on content: every line tokenizes to one span and the same opaque
// rule-stack, so fixed-point detection and chunk-size accounting can be
// exercised without needing a grammar with real multi-line state.
type stubRuleStack struct{}

func (stubRuleStack) Key() string { return "stub" }

type stubGrammar struct{}

func (stubGrammar) Name() string      { return "Stub Grammar" }
func (stubGrammar) ScopeName() string { return "source.stub" }

func (stubGrammar) TokenizeLine(text string, _ RuleStack, _ bool) ([]Tag, RuleStack) {
	n := len([]rune(text))
	if n == 0 {
		return nil, stubRuleStack{}
	}
	return []Tag{Tag(n)}, stubRuleStack{}
}

func (stubGrammar) ScopeForID(ScopeID) (string, bool)        { return "", false }
func (stubGrammar) StartIDForScope(string) (ScopeID, bool)   { return 0, false }
func (stubGrammar) EndIDForScope(string) (ScopeID, bool)     { return 0, false }
func (stubGrammar) OnDidUpdate(func()) Disposable            { return disposeFunc(func() {}) }
func (stubGrammar) IsCommentScope(ScopeDescriptor) bool      { return false }

// testGrammar is a reusable Grammar stub for query tests: it defers actual
// tokenization to an injectable function, falling back to a single
// root-scope span, and exposes its idAllocator so tests can mint scope ids
// to embed in hand-built tag streams.
type testGrammar struct {
	idAlloc  *idAllocator
	tokenize func(text string, ruleStack RuleStack, isFirstLine bool) ([]Tag, RuleStack)
	comment  func(ScopeDescriptor) bool
}

func newTestGrammar() *testGrammar {
	return &testGrammar{idAlloc: newIDAllocator(), comment: func(ScopeDescriptor) bool { return false }}
}

func (g *testGrammar) Name() string      { return "Test Grammar" }
func (g *testGrammar) ScopeName() string { return "source.test" }

func (g *testGrammar) TokenizeLine(text string, rs RuleStack, first bool) ([]Tag, RuleStack) {
	if g.tokenize != nil {
		return g.tokenize(text, rs, first)
	}
	n := len([]rune(text))
	if n == 0 {
		return nil, stubRuleStack{}
	}
	return []Tag{Tag(n)}, stubRuleStack{}
}

func (g *testGrammar) ScopeForID(id ScopeID) (string, bool)       { return g.idAlloc.scopeForID(id) }
func (g *testGrammar) StartIDForScope(name string) (ScopeID, bool) {
	return g.idAlloc.startIDForScope(name)
}
func (g *testGrammar) EndIDForScope(name string) (ScopeID, bool) {
	return g.idAlloc.endIDForScope(name)
}
func (g *testGrammar) OnDidUpdate(func()) Disposable { return disposeFunc(func() {}) }
func (g *testGrammar) IsCommentScope(scopes ScopeDescriptor) bool { return g.comment(scopes) }

// drainChunks repeatedly invokes tokenizeNextChunk directly (bypassing
// goroutine scheduling, for deterministic tests) until the engine reports
// fully tokenized, returning the number of chunks it took.
func drainChunks(e *TokenizationEngine, limit int) int {
	chunks := 0
	for !e.IsFullyTokenized() {
		e.tokenizeNextChunk()
		chunks++
		if chunks > limit {
			break
		}
	}
	return chunks
}
