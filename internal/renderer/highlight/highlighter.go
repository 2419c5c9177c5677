package highlight

import (
	"sync"

	"github.com/dshills/synctoken/internal/engine/buffer"
	"github.com/dshills/synctoken/internal/renderer/linecache"
	"github.com/dshills/synctoken/internal/renderer/style"
	"github.com/dshills/synctoken/internal/syntax"
)

var _ linecache.HighlightSource = (*Provider)(nil)

// placeholderDimFraction controls how far a placeholder span's foreground
// fades toward the background before background tokenization reaches it.
const placeholderDimFraction = 0.35

// Provider projects a TokenizationEngine's cached tag streams into style
// spans for linecache.Cache. It does no caching of its own: the engine
// already owns a per-row cache and invalidates it on edits, so re-deriving
// spans on every call is just a scope-name lookup and a theme lookup per
// token.
type Provider struct {
	mu sync.RWMutex

	engine *syntax.TokenizationEngine
	theme  *Theme
}

// NewProvider creates a highlight provider backed by engine. engine may be
// nil and attached later with SetEngine.
func NewProvider(engine *syntax.TokenizationEngine, theme *Theme) *Provider {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Provider{engine: engine, theme: theme}
}

// SetEngine attaches the tokenization engine backing this provider.
func (p *Provider) SetEngine(engine *syntax.TokenizationEngine) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine = engine
}

// SetTheme sets the active theme.
func (p *Provider) SetTheme(theme *Theme) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.theme = theme
}

// Theme returns the current theme.
func (p *Provider) Theme() *Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// HighlightsForLine returns style spans for the given line on the syntax
// layer, sorted by start position. Satisfies linecache.HighlightSource.
func (p *Provider) HighlightsForLine(line uint32) []style.Span {
	p.mu.RLock()
	engine, theme := p.engine, p.theme
	p.mu.RUnlock()

	if engine == nil {
		return nil
	}

	wasReal := engine.IsRowTokenized(line)
	tokenized := engine.TokenizedLineForRow(line)
	if tokenized == nil {
		return nil
	}

	grammar := engine.Grammar()
	_, isNullGrammar := grammar.(*syntax.NullGrammar)
	dimPlaceholder := !wasReal && !isNullGrammar && !engine.IsFullyTokenized()

	tokens := tokenized.Tokens()
	spans := make([]style.Span, 0, len(tokens))
	for _, tok := range tokens {
		names := syntax.ScopeNames(grammar, tok.Scopes)
		tokStyle := theme.StyleForScopeStack(names)
		if dimPlaceholder {
			tokStyle = theme.Dim(tokStyle, placeholderDimFraction)
		}
		spans = append(spans, style.Span{
			StartCol: uint32(tok.StartColumn),
			EndCol:   uint32(tok.EndColumn),
			Style:    tokStyle,
			Layer:    style.LayerSyntax,
			Merge:    style.MergeReplace,
		})
	}
	return spans
}

// InvalidateLines is a no-op: the engine is the source of truth for which
// rows are stale, and it recomputes them in the background on its own
// schedule. linecache.Cache does not call it: its HighlightSource interface
// requires only HighlightsForLine.
func (p *Provider) InvalidateLines(startLine, endLine uint32) {}

// ScopeDescriptorForPosition exposes the engine's scope lookup for callers
// that need scope names directly (status line, quick-info popups) rather
// than rendered style spans.
func (p *Provider) ScopeDescriptorForPosition(pos buffer.Point) syntax.ScopeDescriptor {
	p.mu.RLock()
	engine := p.engine
	p.mu.RUnlock()
	if engine == nil {
		return nil
	}
	return engine.ScopeDescriptorForPosition(pos)
}
