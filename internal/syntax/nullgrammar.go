package syntax

// NullGrammar is the degenerate grammar: every line is a single span under
// one root scope, and tokenization is always already a fixed point, so the
// engine never schedules background work for it.
type NullGrammar struct {
	idAlloc *idAllocator
}

const nullGrammarScope = "text.plain.null-grammar"

// NewNullGrammar returns a NullGrammar instance.
func NewNullGrammar() *NullGrammar {
	alloc := newIDAllocator()
	alloc.openID(nullGrammarScope)
	return &NullGrammar{idAlloc: alloc}
}

func (g *NullGrammar) Name() string      { return "Null Grammar" }
func (g *NullGrammar) ScopeName() string { return nullGrammarScope }

func (g *NullGrammar) TokenizeLine(text string, _ RuleStack, _ bool) ([]Tag, RuleStack) {
	n := len([]rune(text))
	if n == 0 {
		return nil, nullRuleStack{}
	}
	return []Tag{Tag(n)}, nullRuleStack{}
}

func (g *NullGrammar) ScopeForID(id ScopeID) (string, bool) {
	return g.idAlloc.scopeForID(id)
}

func (g *NullGrammar) StartIDForScope(name string) (ScopeID, bool) {
	return g.idAlloc.startIDForScope(name)
}

func (g *NullGrammar) EndIDForScope(name string) (ScopeID, bool) {
	return g.idAlloc.endIDForScope(name)
}

func (g *NullGrammar) OnDidUpdate(func()) Disposable {
	return disposeFunc(func() {})
}

func (g *NullGrammar) IsCommentScope(ScopeDescriptor) bool {
	return false
}

type nullRuleStack struct{}

func (nullRuleStack) Key() string { return "null" }
