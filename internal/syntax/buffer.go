package syntax

import (
	"strings"
	"sync"

	"github.com/dshills/synctoken/internal/engine/buffer"
	"github.com/google/uuid"
)

// TextBuffer is the text-storage collaborator consumed by the engine: row-
// indexed line access plus an edit-change feed. The engine never mutates it.
type TextBuffer interface {
	LineCount() uint32
	LastRow() uint32
	LineForRow(row uint32) string
	LineEndingForRow(row uint32) buffer.LineEnding
	IsRowBlank(row uint32) bool
	NextNonBlankRow(row uint32) (uint32, bool)
	ClipPosition(p buffer.Point) buffer.Point
	Path() string
	ID() string
	IsAlive() bool
	OnDidChange(cb func(ChangeEvent)) Disposable
	GetText() string
}

// ChangeEvent is the row/column-granular shape bufferDidChange consumes,
// bridging buffer.Buffer's byte-offset edit API into the coordinates the
// engine's edit-handling algorithm is specified against.
type ChangeEvent struct {
	OldRange buffer.PointRange
	NewRange buffer.PointRange
}

// DocumentBuffer adapts a rope-backed *buffer.Buffer, which has no notion of
// a file path, a stable id, or an edit-change subscription, into a
// TextBuffer. It never modifies buffer.Buffer itself: the text buffer is
// out of scope for this package, so new capabilities are layered on top of
// it here rather than added to it.
type DocumentBuffer struct {
	mu        sync.Mutex
	buf       *buffer.Buffer
	path      string
	id        string
	alive     bool
	listeners []func(ChangeEvent)
}

// NewDocumentBuffer wraps buf, assigning it a fresh process-unique id.
func NewDocumentBuffer(buf *buffer.Buffer, path string) *DocumentBuffer {
	return &DocumentBuffer{buf: buf, path: path, id: uuid.NewString(), alive: true}
}

func (d *DocumentBuffer) Path() string { return d.path }
func (d *DocumentBuffer) ID() string   { return d.id }

func (d *DocumentBuffer) IsAlive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alive
}

// Close marks the buffer dead; any scheduled chunk touching it becomes a no-op.
func (d *DocumentBuffer) Close() {
	d.mu.Lock()
	d.alive = false
	d.mu.Unlock()
}

func (d *DocumentBuffer) LineCount() uint32 { return d.buf.LineCount() }

func (d *DocumentBuffer) LastRow() uint32 {
	n := d.buf.LineCount()
	if n == 0 {
		return 0
	}
	return n - 1
}

func (d *DocumentBuffer) LineForRow(row uint32) string { return d.buf.LineText(row) }

// GetText returns the full contents of the buffer, as required by
// diagnostic metadata attached to an unmatched scope-close assertion.
func (d *DocumentBuffer) GetText() string { return d.buf.Text() }

func (d *DocumentBuffer) LineEndingForRow(uint32) buffer.LineEnding {
	return d.buf.LineEnding()
}

func (d *DocumentBuffer) IsRowBlank(row uint32) bool {
	return strings.TrimSpace(d.buf.LineText(row)) == ""
}

func (d *DocumentBuffer) NextNonBlankRow(row uint32) (uint32, bool) {
	for r := row + 1; r < d.buf.LineCount(); r++ {
		if !d.IsRowBlank(r) {
			return r, true
		}
	}
	return 0, false
}

func (d *DocumentBuffer) ClipPosition(p buffer.Point) buffer.Point {
	lastRow := d.LastRow()
	if p.Line > lastRow {
		p.Line = lastRow
	}
	lineLen := uint32(d.buf.LineLen(p.Line))
	if p.Column > lineLen {
		p.Column = lineLen
	}
	return p
}

// OnDidChange subscribes cb to future edits. The returned Disposable removes
// the subscription.
func (d *DocumentBuffer) OnDidChange(cb func(ChangeEvent)) Disposable {
	d.mu.Lock()
	d.listeners = append(d.listeners, cb)
	idx := len(d.listeners) - 1
	d.mu.Unlock()
	return disposeFunc(func() {
		d.mu.Lock()
		d.listeners[idx] = nil
		d.mu.Unlock()
	})
}

// ApplyEdit mutates the underlying buffer and notifies change listeners with
// row/column ranges. Old-range points are resolved before the mutation (the
// byte offsets in edit.Range describe pre-edit text); new-range points are
// resolved after.
func (d *DocumentBuffer) ApplyEdit(edit buffer.Edit) (buffer.EditResult, error) {
	oldStart := d.buf.OffsetToPoint(edit.Range.Start)
	oldEnd := d.buf.OffsetToPoint(edit.Range.End)

	result, err := d.buf.ApplyEdit(edit)
	if err != nil {
		return result, err
	}

	newStart := d.buf.OffsetToPoint(result.NewRange.Start)
	newEnd := d.buf.OffsetToPoint(result.NewRange.End)

	change := ChangeEvent{
		OldRange: buffer.NewPointRange(oldStart, oldEnd),
		NewRange: buffer.NewPointRange(newStart, newEnd),
	}

	d.mu.Lock()
	listeners := append([]func(ChangeEvent){}, d.listeners...)
	d.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			l(change)
		}
	}

	return result, nil
}
