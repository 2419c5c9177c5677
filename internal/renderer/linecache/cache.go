// Package linecache provides an enhanced line cache that integrates dirty tracking
// and style resolution for efficient incremental rendering on top of a tokenization
// engine's scope information.
package linecache

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/synctoken/internal/renderer/core"
	"github.com/dshills/synctoken/internal/renderer/dirty"
	"github.com/dshills/synctoken/internal/renderer/style"
)

// HighlightSource provides syntax highlighting spans for lines. In practice this
// is backed by a syntax.TokenizationEngine query (see highlight.Provider).
type HighlightSource interface {
	// HighlightsForLine returns style spans for the given line.
	HighlightsForLine(line uint32) []style.Span
}

// OverlaySource provides overlay spans (ghost text, diagnostics, etc.) for lines.
type OverlaySource interface {
	// OverlaysForLine returns overlay spans for the given line.
	OverlaysForLine(line uint32) []style.Span
}

// SelectionSource provides selection information.
type SelectionSource interface {
	// SelectionSpansForLine returns selection spans for the given line.
	SelectionSpansForLine(line uint32) []style.Span
}

// CachedLine represents a fully rendered line with styled cells.
type CachedLine struct {
	// BufferLine is the buffer line number.
	BufferLine uint32

	// Cells contains the styled cells ready for rendering.
	Cells []core.Cell

	// Version tracks the cache version for invalidation.
	Version uint64

	// LastAccess tracks when this entry was last used.
	LastAccess time.Time

	// ContentHash is the hash of the source text.
	ContentHash uint64
}

// Config configures the line cache behavior.
type Config struct {
	// MaxCachedLines is the maximum number of lines to cache.
	MaxCachedLines int

	// PrefetchLines is the number of lines to prefetch around visible region.
	PrefetchLines int

	// EvictionBatchSize is the number of entries to evict at once.
	EvictionBatchSize int
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxCachedLines:    2000,
		PrefetchLines:     20,
		EvictionBatchSize: 50,
	}
}

// Cache provides efficient styled-line caching with dirty tracking and style
// resolution, sourced from a syntax-aware HighlightSource. This is a presentation
// cache only: it never backs the tokenization engine's own authoritative cache,
// which must never evict entries (see syntax.TokenizationEngine).
type Cache struct {
	mu sync.RWMutex

	config Config

	entries map[uint32]*CachedLine

	styleResolver *style.Resolver
	dirtyTracker  *dirty.Tracker

	highlightSrc HighlightSource
	overlaySrc   OverlaySource
	selectionSrc SelectionSource

	version uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a new line cache.
func New(config Config) *Cache {
	if config.MaxCachedLines <= 0 {
		config.MaxCachedLines = 2000
	}
	if config.EvictionBatchSize <= 0 {
		config.EvictionBatchSize = 50
	}

	return &Cache{
		config:        config,
		entries:       make(map[uint32]*CachedLine),
		styleResolver: style.NewResolver(),
	}
}

// SetDirtyTracker sets the dirty tracker for change notification.
func (c *Cache) SetDirtyTracker(tracker *dirty.Tracker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirtyTracker = tracker
}

// SetHighlightSource sets the syntax highlighting source.
func (c *Cache) SetHighlightSource(src HighlightSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.highlightSrc = src
	c.version++
}

// SetOverlaySource sets the overlay source.
func (c *Cache) SetOverlaySource(src OverlaySource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlaySrc = src
	c.version++
}

// SetSelectionSource sets the selection source.
func (c *Cache) SetSelectionSource(src SelectionSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectionSrc = src
	// Don't increment version - selections are volatile
}

// StyleResolver returns the style resolver for configuration.
func (c *Cache) StyleResolver() *style.Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.styleResolver
}

// GetLine retrieves or computes the styled cells for a line.
func (c *Cache) GetLine(line uint32, text string) *CachedLine {
	contentHash := hashContent(text)

	c.mu.RLock()
	if entry, ok := c.entries[line]; ok {
		if entry.ContentHash == contentHash && entry.Version == c.version {
			c.mu.RUnlock()
			c.mu.Lock()
			if entry, ok := c.entries[line]; ok {
				if entry.ContentHash == contentHash && entry.Version == c.version {
					entry.LastAccess = time.Now()
					c.hits.Add(1)
					c.mu.Unlock()
					return entry
				}
			}
			c.mu.Unlock()
		} else {
			c.mu.RUnlock()
		}
	} else {
		c.mu.RUnlock()
	}

	c.mu.RLock()
	version := c.version
	highlightSrc := c.highlightSrc
	overlaySrc := c.overlaySrc
	styleResolver := c.styleResolver
	c.mu.RUnlock()

	cells := buildStyledCellsUnlocked(line, text, highlightSrc, overlaySrc, styleResolver)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[line]; ok {
		if entry.ContentHash == contentHash && entry.Version == version {
			entry.LastAccess = time.Now()
			c.hits.Add(1)
			return entry
		}
	}

	c.misses.Add(1)

	entry := &CachedLine{
		BufferLine:  line,
		Cells:       cells,
		Version:     version,
		LastAccess:  time.Now(),
		ContentHash: contentHash,
	}

	c.entries[line] = entry
	c.evictIfNeeded()

	return entry
}

// GetStyledCells retrieves styled cells for a line, using cache if available.
// Unlike GetLine, this also applies volatile styles like selection.
func (c *Cache) GetStyledCells(line uint32, text string) []core.Cell {
	cached := c.GetLine(line, text)

	c.mu.RLock()
	selectionSrc := c.selectionSrc
	styleResolver := c.styleResolver
	c.mu.RUnlock()

	if selectionSrc != nil {
		selSpans := selectionSrc.SelectionSpansForLine(line)
		if len(selSpans) > 0 {
			cells := make([]core.Cell, len(cached.Cells))
			copy(cells, cached.Cells)
			return styleResolver.ResolveLine(cells, selSpans)
		}
	}

	return cached.Cells
}

// buildStyledCellsUnlocked builds styled cells for a line's raw text without
// holding the cache lock. Package-level to avoid accidental lock misuse.
func buildStyledCellsUnlocked(line uint32, text string, highlightSrc HighlightSource, overlaySrc OverlaySource, styleResolver *style.Resolver) []core.Cell {
	if text == "" {
		return nil
	}

	cells := core.CellsFromString(text, core.DefaultStyle())

	var spans []style.Span
	if highlightSrc != nil {
		spans = append(spans, highlightSrc.HighlightsForLine(line)...)
	}
	if overlaySrc != nil {
		spans = append(spans, overlaySrc.OverlaysForLine(line)...)
	}

	if len(spans) > 0 && styleResolver != nil {
		cells = styleResolver.ResolveLine(cells, spans)
	}

	return cells
}

// Invalidate invalidates a specific line.
func (c *Cache) Invalidate(line uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, line)

	if c.dirtyTracker != nil {
		c.dirtyTracker.MarkLine(line)
	}
}

// InvalidateRange invalidates a range of lines, inclusive.
func (c *Cache) InvalidateRange(startLine, endLine uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if startLine > endLine {
		return
	}

	for line := startLine; line <= endLine; line++ {
		delete(c.entries, line)
		if line == ^uint32(0) {
			break
		}
	}

	if c.dirtyTracker != nil {
		c.dirtyTracker.MarkLines(startLine, endLine)
	}
}

// InvalidateFrom invalidates all lines from a given line onwards.
func (c *Cache) InvalidateFrom(line uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for l := range c.entries {
		if l >= line {
			delete(c.entries, l)
		}
	}

	if c.dirtyTracker != nil {
		c.dirtyTracker.MarkChange(dirty.Change{
			Type:   dirty.ChangeDelete,
			Region: dirty.NewSingleLine(line),
		})
	}
}

// InvalidateStyles invalidates all styled cache entries, e.g. on theme or grammar change.
func (c *Cache) InvalidateStyles() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.version++

	if c.dirtyTracker != nil {
		c.dirtyTracker.MarkFullRedraw()
	}
}

// InvalidateAll clears the entire cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint32]*CachedLine)
	c.version++

	if c.dirtyTracker != nil {
		c.dirtyTracker.MarkFullRedraw()
	}
}

// ShiftLines adjusts line numbers when lines are inserted or deleted: every
// cached line at or after fromLine moves by delta, and entries that would move
// below line 0 are dropped.
func (c *Cache) ShiftLines(fromLine uint32, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if delta == 0 {
		return
	}

	toMove := make(map[uint32]*CachedLine)
	for line, entry := range c.entries {
		if line >= fromLine {
			delete(c.entries, line)
			newLine := int64(line) + int64(delta)
			if newLine >= 0 && newLine <= int64(^uint32(0)) {
				entry.BufferLine = uint32(newLine)
				toMove[uint32(newLine)] = entry
			}
		}
	}

	for line, entry := range toMove {
		c.entries[line] = entry
	}

	if c.dirtyTracker != nil {
		if delta > 0 {
			c.dirtyTracker.MarkChange(dirty.Change{
				Type:   dirty.ChangeInsert,
				Region: dirty.NewSingleLine(fromLine),
			})
		} else {
			c.dirtyTracker.MarkChange(dirty.Change{
				Type:   dirty.ChangeDelete,
				Region: dirty.NewSingleLine(fromLine),
			})
		}
	}
}

// evictIfNeeded evicts entries if the cache is too large.
func (c *Cache) evictIfNeeded() {
	if len(c.entries) <= c.config.MaxCachedLines {
		return
	}

	type entryInfo struct {
		line   uint32
		access time.Time
	}

	entries := make([]entryInfo, 0, len(c.entries))
	for line, entry := range c.entries {
		entries = append(entries, entryInfo{line, entry.LastAccess})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].access.Before(entries[j].access)
	})

	toEvict := len(c.entries) - c.config.MaxCachedLines + c.config.EvictionBatchSize
	if toEvict > len(entries) {
		toEvict = len(entries)
	}

	for i := 0; i < toEvict; i++ {
		delete(c.entries, entries[i].line)
	}
	c.evictions.Add(uint64(toEvict))
}

// IsDirty returns true if any lines need redrawing.
func (c *Cache) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dirtyTracker == nil {
		return true
	}
	return c.dirtyTracker.IsDirty()
}

// DirtyLines returns the list of lines that need redrawing.
func (c *Cache) DirtyLines() []uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dirtyTracker == nil {
		return nil
	}
	return c.dirtyTracker.DirtyLines()
}

// ClearDirty clears the dirty tracking state.
func (c *Cache) ClearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dirtyTracker != nil {
		c.dirtyTracker.Clear()
	}
}

// NeedsFullRedraw returns true if a full screen redraw is needed.
func (c *Cache) NeedsFullRedraw() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dirtyTracker == nil {
		return true
	}
	return c.dirtyTracker.NeedsFullRedraw()
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	evictions := c.evictions.Load()

	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:      len(c.entries),
		MaxSize:   c.config.MaxCachedLines,
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		HitRate:   hitRate,
		Version:   c.version,
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Size      int
	MaxSize   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
	Version   uint64
}

// PrefetchLines pre-caches lines around the visible region.
func (c *Cache) PrefetchLines(centerLine uint32, text func(line uint32) string) {
	c.mu.RLock()
	prefetchCount := c.config.PrefetchLines
	c.mu.RUnlock()

	if prefetchCount <= 0 {
		return
	}

	startLine := uint32(0)
	if centerLine > uint32(prefetchCount) {
		startLine = centerLine - uint32(prefetchCount)
	}

	endLine := centerLine + uint32(prefetchCount)
	if endLine < centerLine {
		endLine = ^uint32(0)
	}

	for line := startLine; line <= endLine; line++ {
		lineText := text(line)
		if lineText != "" {
			c.GetLine(line, lineText)
		}
		if line == ^uint32(0) {
			break
		}
	}
}

// hashContent computes an FNV-1a hash of the content.
func hashContent(s string) uint64 {
	var hash uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= 1099511628211
	}
	return hash
}
