package syntax

import (
	"math"

	"github.com/dshills/synctoken/internal/engine/buffer"
	"github.com/dshills/synctoken/internal/renderer/layout"
)

// ScopeDescriptorForPosition returns the scope stack active at pos, clipped
// to buffer bounds.
func (e *TokenizationEngine) ScopeDescriptorForPosition(pos buffer.Point) ScopeDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()

	clipped := e.buffer.ClipPosition(pos)
	line := e.tokenizedLineForRowLocked(int(clipped.Line))
	if line == nil {
		return nil
	}
	for _, tok := range line.Tokens() {
		if uint32(tok.EndColumn) > clipped.Column {
			return ScopeNames(e.grammar, tok.Scopes)
		}
	}
	return ScopeNames(e.grammar, line.EndOfLineScopes())
}

// TokenForPosition returns the token covering pos, if any.
func (e *TokenizationEngine) TokenForPosition(pos buffer.Point) (Token, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clipped := e.buffer.ClipPosition(pos)
	line := e.tokenizedLineForRowLocked(int(clipped.Line))
	if line == nil {
		return Token{}, false
	}
	return line.TokenAtColumn(int(clipped.Column))
}

// TokenStartPositionForPosition returns the start position of the token
// covering pos, or pos itself if no token covers it.
func (e *TokenizationEngine) TokenStartPositionForPosition(pos buffer.Point) buffer.Point {
	e.mu.Lock()
	defer e.mu.Unlock()

	clipped := e.buffer.ClipPosition(pos)
	line := e.tokenizedLineForRowLocked(int(clipped.Line))
	if line == nil {
		return clipped
	}
	return buffer.Point{Line: clipped.Line, Column: uint32(line.TokenStartColumnForColumn(int(clipped.Column)))}
}

// BufferRangeForScopeAtPosition returns the contiguous column range on
// pos's row over which selector matches the scope stack, or false if the
// scope at pos itself does not match. Ranges never cross row boundaries.
func (e *TokenizationEngine) BufferRangeForScopeAtPosition(selector ScopeSelector, pos buffer.Point) (buffer.PointRange, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clipped := e.buffer.ClipPosition(pos)
	line := e.tokenizedLineForRowLocked(int(clipped.Line))
	if line == nil {
		return buffer.PointRange{}, false
	}

	spans := line.Tokens()
	idx := -1
	for i, sp := range spans {
		if int(clipped.Column) >= sp.StartColumn && int(clipped.Column) < sp.EndColumn {
			idx = i
			break
		}
	}
	if idx == -1 {
		return buffer.PointRange{}, false
	}

	if !selector.Matches(ScopeNames(e.grammar, spans[idx].Scopes)) {
		return buffer.PointRange{}, false
	}

	startCol, endCol := spans[idx].StartColumn, spans[idx].EndColumn
	for i := idx - 1; i >= 0; i-- {
		if !selector.Matches(ScopeNames(e.grammar, spans[i].Scopes)) {
			break
		}
		startCol = spans[i].StartColumn
	}
	for i := idx + 1; i < len(spans); i++ {
		if !selector.Matches(ScopeNames(e.grammar, spans[i].Scopes)) {
			break
		}
		endCol = spans[i].EndColumn
	}

	row := clipped.Line
	return buffer.NewPointRange(
		buffer.Point{Line: row, Column: uint32(startCol)},
		buffer.Point{Line: row, Column: uint32(endCol)},
	), true
}

// IsFoldableAtRow reports whether row starts a code fold (its indent is
// lower than the next non-blank row's, and it is not itself a comment) or a
// comment-block fold (it is the first row of a run of comment lines).
func (e *TokenizationEngine) IsFoldableAtRow(row uint32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isFoldableCodeAtRowLocked(row) || e.isFoldableCommentAtRowLocked(row)
}

func (e *TokenizationEngine) isFoldableCodeAtRowLocked(row uint32) bool {
	if e.buffer.IsRowBlank(row) {
		return false
	}
	if line := e.tokenizedLineForRowLocked(int(row)); line != nil && line.IsComment() {
		return false
	}
	next, ok := e.buffer.NextNonBlankRow(row)
	if !ok {
		return false
	}
	return e.indentLevelForRowLocked(next) > e.indentLevelForRowLocked(row)
}

func (e *TokenizationEngine) isFoldableCommentAtRowLocked(row uint32) bool {
	line := e.tokenizedLineForRowLocked(int(row))
	if line == nil || !line.IsComment() {
		return false
	}
	if row > 0 {
		if prev := e.tokenizedLineForRowLocked(int(row) - 1); prev != nil && prev.IsComment() {
			return false
		}
	}
	next := e.tokenizedLineForRowLocked(int(row) + 1)
	return next != nil && next.IsComment()
}

// IndentLevelForRow returns the indentation level of row, expanding tabs to
// the engine's configured tab length.
func (e *TokenizationEngine) IndentLevelForRow(row uint32) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indentLevelForRowLocked(row)
}

func (e *TokenizationEngine) indentLevelForRowLocked(row uint32) float64 {
	if !e.buffer.IsRowBlank(row) {
		return IndentLevelForLine(e.buffer.LineForRow(row), e.opts.TabLength)
	}

	var levels []float64
	if next, ok := e.buffer.NextNonBlankRow(row); ok {
		levels = append(levels, math.Ceil(e.indentLevelForRowLocked(next)))
	}
	if prev, ok := e.prevNonBlankRowLocked(row); ok {
		levels = append(levels, math.Ceil(e.indentLevelForRowLocked(prev)))
	}
	max := 0.0
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

func (e *TokenizationEngine) prevNonBlankRowLocked(row uint32) (uint32, bool) {
	for r := row; r > 0; {
		r--
		if !e.buffer.IsRowBlank(r) {
			return r, true
		}
	}
	return 0, false
}

// IndentLevelForLine computes a single line's indentation level: leading
// whitespace, expanding tabs to the next multiple of tabLength, divided by
// tabLength.
func IndentLevelForLine(line string, tabLength int) float64 {
	if tabLength <= 0 {
		tabLength = 1
	}
	expander := layout.NewTabExpander(tabLength)

	leading := line
	for i, r := range line {
		if r != '\t' && r != ' ' {
			leading = line[:i]
			break
		}
	}
	return float64(expander.ExpandedWidth(leading)) / float64(tabLength)
}
