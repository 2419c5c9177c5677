package syntax

import (
	"regexp"
	"strconv"
	"sync"
	"unicode/utf8"
)

// PatternRule is a single-line match rule: every match of Pattern within a
// line is tagged with Scope.
type PatternRule struct {
	Scope   string
	Pattern *regexp.Regexp
}

// BeginEndRule spans from a Begin match to an End match, inclusive, possibly
// across many lines. Nesting a single-line rule inside an open construct is
// not attempted; the span between Begin and End is one flat scope.
type BeginEndRule struct {
	Scope string
	Begin *regexp.Regexp
	End   *regexp.Regexp
}

// PatternGrammar is a regex-driven Grammar: a flat list of single-line rules
// plus a list of begin/end multi-line constructs, continued across lines via
// an opaque rule-stack holding the index of the still-open construct, if any.
//
// Matching runs against the line's raw bytes (so rule authors write ordinary
// Go regexes), but every tag emitted measures spans in runes, matching the
// tag stream's character-count convention.
type PatternGrammar struct {
	mu        sync.RWMutex
	name      string
	scopeName string
	rules     []PatternRule
	multiline []BeginEndRule
	comment   func(ScopeDescriptor) bool
	idAlloc   *idAllocator
	subs      []func()
}

// NewPatternGrammar returns an empty grammar with the given name and root scope.
func NewPatternGrammar(name, scopeName string) *PatternGrammar {
	return &PatternGrammar{
		name:      name,
		scopeName: scopeName,
		idAlloc:   newIDAllocator(),
		comment:   func(ScopeDescriptor) bool { return false },
	}
}

// AddRule registers a single-line rule.
func (g *PatternGrammar) AddRule(scope string, pattern *regexp.Regexp) *PatternGrammar {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = append(g.rules, PatternRule{Scope: scope, Pattern: pattern})
	g.idAlloc.openID(scope)
	return g
}

// AddMultiline registers a begin/end construct.
func (g *PatternGrammar) AddMultiline(scope string, begin, end *regexp.Regexp) *PatternGrammar {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.multiline = append(g.multiline, BeginEndRule{Scope: scope, Begin: begin, End: end})
	g.idAlloc.openID(scope)
	return g
}

// SetCommentPredicate overrides which scopes are considered comments by
// isComment and fold-by-comment queries. The default predicate never matches.
func (g *PatternGrammar) SetCommentPredicate(pred func(ScopeDescriptor) bool) *PatternGrammar {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.comment = pred
	return g
}

func (g *PatternGrammar) Name() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.name
}

func (g *PatternGrammar) ScopeName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scopeName
}

func (g *PatternGrammar) ScopeForID(id ScopeID) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.idAlloc.scopeForID(id)
}

func (g *PatternGrammar) StartIDForScope(name string) (ScopeID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.idAlloc.startIDForScope(name)
}

func (g *PatternGrammar) EndIDForScope(name string) (ScopeID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.idAlloc.endIDForScope(name)
}

func (g *PatternGrammar) IsCommentScope(scopes ScopeDescriptor) bool {
	g.mu.RLock()
	pred := g.comment
	g.mu.RUnlock()
	return pred(scopes)
}

// OnDidUpdate registers cb to run when ReloadRules replaces the rule table.
func (g *PatternGrammar) OnDidUpdate(cb func()) Disposable {
	g.mu.Lock()
	g.subs = append(g.subs, cb)
	idx := len(g.subs) - 1
	g.mu.Unlock()
	return disposeFunc(func() {
		g.mu.Lock()
		g.subs[idx] = nil
		g.mu.Unlock()
	})
}

// ReloadRules atomically swaps in a new rule table (e.g. after a grammar
// file changes on disk) and notifies subscribers, which triggers the engine
// to retokenize the buffers bound to this grammar.
func (g *PatternGrammar) ReloadRules(rules []PatternRule, multiline []BeginEndRule) {
	g.mu.Lock()
	g.rules = rules
	g.multiline = multiline
	for _, r := range rules {
		g.idAlloc.openID(r.Scope)
	}
	for _, r := range multiline {
		g.idAlloc.openID(r.Scope)
	}
	subs := append([]func(){}, g.subs...)
	g.mu.Unlock()
	for _, cb := range subs {
		if cb != nil {
			cb()
		}
	}
}

type patternRuleStack struct {
	openIndex int
}

func (s patternRuleStack) Key() string { return strconv.Itoa(s.openIndex) }

// TokenizeLine implements Grammar.
func (g *PatternGrammar) TokenizeLine(text string, ruleStack RuleStack, _ bool) ([]Tag, RuleStack) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	state, ok := ruleStack.(patternRuleStack)
	if !ok {
		state = patternRuleStack{openIndex: -1}
	}

	var tags []Tag
	pos := 0
	// runeSpan measures [from,to) in runes, not bytes, since the tag stream's
	// span lengths are characters; matching itself still runs byte-wise.
	runeSpan := func(from, to int) Tag { return Tag(utf8.RuneCountInString(text[from:to])) }

	if state.openIndex >= 0 {
		rule := g.multiline[state.openIndex]
		loc := rule.End.FindStringIndex(text)
		if loc == nil {
			if len(text) > 0 {
				tags = append(tags, runeSpan(0, len(text)))
			}
			return tags, state
		}
		if loc[1] > 0 {
			tags = append(tags, runeSpan(0, loc[1]))
		}
		if openID, ok := g.idAlloc.lookupOpenID(rule.Scope); ok {
			tags = append(tags, Tag(openID-1))
		}
		pos = loc[1]
		state = patternRuleStack{openIndex: -1}
	}

	for pos < len(text) {
		matchStart, matchEnd, scope, beginIdx := g.earliestMatch(text, pos)
		if matchStart == -1 {
			tags = append(tags, runeSpan(pos, len(text)))
			break
		}
		if matchStart > pos {
			tags = append(tags, runeSpan(pos, matchStart))
		}
		openID, ok := g.idAlloc.lookupOpenID(scope)
		if !ok {
			// Every rule's scope is allocated an id at AddRule/AddMultiline/
			// ReloadRules time; a miss here means the match is against a
			// scope this grammar never registered. Emit the span untagged
			// rather than allocate under only a read lock.
			tags = append(tags, runeSpan(matchStart, matchEnd))
			pos = matchEnd
			continue
		}
		if beginIdx >= 0 {
			rule := g.multiline[beginIdx]
			tags = append(tags, Tag(openID))
			endLoc := rule.End.FindStringIndex(text[matchEnd:])
			if endLoc == nil {
				if matchStart < len(text) {
					tags = append(tags, runeSpan(matchStart, len(text)))
				}
				state = patternRuleStack{openIndex: beginIdx}
				pos = len(text)
				break
			}
			if matchEnd+endLoc[1] > matchStart {
				tags = append(tags, runeSpan(matchStart, matchEnd+endLoc[1]))
			}
			tags = append(tags, Tag(openID-1))
			pos = matchEnd + endLoc[1]
			continue
		}
		tags = append(tags, Tag(openID), runeSpan(matchStart, matchEnd), Tag(openID-1))
		pos = matchEnd
	}

	return tags, state
}

// earliestMatch scans every rule's next match at or after pos and returns
// the one starting earliest, preferring a multiline begin over a single-line
// rule on a tie (an opening delimiter often also matches a narrower rule).
func (g *PatternGrammar) earliestMatch(text string, pos int) (start, end int, scope string, beginIdx int) {
	start, end, beginIdx = -1, -1, -1
	consider := func(loc []int, s string, bIdx int) {
		if loc == nil {
			return
		}
		ms, me := pos+loc[0], pos+loc[1]
		if start == -1 || ms < start || (ms == start && beginIdx < 0 && bIdx >= 0) {
			start, end, scope, beginIdx = ms, me, s, bIdx
		}
	}
	for i, r := range g.multiline {
		consider(r.Begin.FindStringIndex(text[pos:]), r.Scope, i)
	}
	for _, r := range g.rules {
		consider(r.Pattern.FindStringIndex(text[pos:]), r.Scope, -1)
	}
	return
}
