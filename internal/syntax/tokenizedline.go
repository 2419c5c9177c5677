package syntax

import (
	"strings"

	"github.com/dshills/synctoken/internal/engine/buffer"
)

// Token is a contiguous run of text sharing one scope stack.
type Token struct {
	StartColumn int
	EndColumn   int
	Scopes      []ScopeID
}

// TokenizedLine is an immutable per-row tokenization record. It is built by
// the engine and replaced wholesale on re-tokenization; nothing about a
// TokenizedLine changes once constructed.
type TokenizedLine struct {
	text       string
	lineEnding buffer.LineEnding
	tags       []Tag
	ruleStack  RuleStack
	openScopes []ScopeID
	grammar    Grammar
}

// NewTokenizedLine builds an immutable tokenized line. Slices passed in are
// copied, so the caller's backing arrays may be reused.
func NewTokenizedLine(text string, lineEnding buffer.LineEnding, tags []Tag, ruleStack RuleStack, openScopes []ScopeID, grammar Grammar) *TokenizedLine {
	return &TokenizedLine{
		text:       text,
		lineEnding: lineEnding,
		tags:       append([]Tag(nil), tags...),
		ruleStack:  ruleStack,
		openScopes: append([]ScopeID(nil), openScopes...),
		grammar:    grammar,
	}
}

func (l *TokenizedLine) Text() string               { return l.text }
func (l *TokenizedLine) LineEnding() buffer.LineEnding { return l.lineEnding }
func (l *TokenizedLine) Tags() []Tag                { return l.tags }
func (l *TokenizedLine) RuleStack() RuleStack       { return l.ruleStack }
func (l *TokenizedLine) OpenScopes() []ScopeID      { return l.openScopes }
func (l *TokenizedLine) Grammar() Grammar           { return l.grammar }

// Tokens returns the line's spans in order, each bundled with the scope
// stack covering it.
func (l *TokenizedLine) Tokens() []Token {
	var tokens []Token
	scopes := append([]ScopeID(nil), l.openScopes...)
	col := 0
	for _, t := range l.tags {
		switch {
		case t.IsOpen():
			scopes = append(scopes, ScopeID(t))
		case t.IsClose():
			scopes = popScope(scopes, t.MatchingOpen())
		default:
			start := col
			col += t.SpanLen()
			tokens = append(tokens, Token{
				StartColumn: start,
				EndColumn:   col,
				Scopes:      append([]ScopeID(nil), scopes...),
			})
		}
	}
	return tokens
}

// TokenAtColumn returns the token covering col, if any.
func (l *TokenizedLine) TokenAtColumn(col int) (Token, bool) {
	for _, tok := range l.Tokens() {
		if col >= tok.StartColumn && col < tok.EndColumn {
			return tok, true
		}
	}
	return Token{}, false
}

// TokenStartColumnForColumn returns the start column of the token covering
// col, or col itself if no token covers it.
func (l *TokenizedLine) TokenStartColumnForColumn(col int) int {
	if tok, ok := l.TokenAtColumn(col); ok {
		return tok.StartColumn
	}
	return col
}

// EndOfLineScopes returns the scope stack at the end of the line, obtained
// by folding OpenScopes over Tags.
func (l *TokenizedLine) EndOfLineScopes() []ScopeID {
	return FoldScopes(l.openScopes, l.tags, nil)
}

// IsComment reports whether the line's first non-whitespace token has a
// scope matching the grammar's comment predicate.
func (l *TokenizedLine) IsComment() bool {
	if l.grammar == nil {
		return false
	}
	runes := []rune(l.text)
	for _, tok := range l.Tokens() {
		end := tok.EndColumn
		if end > len(runes) {
			end = len(runes)
		}
		start := tok.StartColumn
		if start > end {
			continue
		}
		if strings.TrimSpace(string(runes[start:end])) == "" {
			continue
		}
		return l.grammar.IsCommentScope(ScopeNames(l.grammar, tok.Scopes))
	}
	return false
}
