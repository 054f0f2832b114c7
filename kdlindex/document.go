package kdlindex

import (
	"sync/atomic"

	"github.com/kdldoc/kdldoc/kdltok"
)

// CommentMode re-exports kdltok's comment-handling setting so callers never
// need to import the tokenizer package directly to call Parse.
type CommentMode = kdltok.CommentMode

const (
	CommentModeSkip     = kdltok.CommentModeSkip
	CommentModeDisallow = kdltok.CommentModeDisallow
	CommentModeAllow    = kdltok.CommentModeAllow
)

// Document owns a parsed buffer plus its side-index and is the entry
// point for navigation (spec §3.1, §5.1). Concurrent Dispose calls are
// safe: only one wins, guarded by disposed's compare-and-swap.
type Document struct {
	buf      *[]byte // pooled copy of the parsed input; nil once disposed
	db       *metadataDB
	disposed int32  // 0 = live, 1 = disposed; set via atomic.CompareAndSwapInt32
	pooled   bool   // false for clone_subtree results: Dispose is then a no-op
}

// Parse copies input into a pool-rented buffer, tokenizes and indexes it,
// and returns a Document owning both. comments controls how `#` comments
// are handled; CommentModeAllow is rejected by the tokenizer with a
// "not supported" error (spec §6.1).
func Parse(input []byte, comments CommentMode) (*Document, error) {
	if input == nil {
		return nil, newError(ErrArgumentNull, "input must not be nil")
	}

	owned := getByteBuffer(len(input))
	*owned = append((*owned)[:0], input...)

	db, err := ParseTokens(*owned, comments)
	if err != nil {
		putByteBuffer(owned)
		return nil, err
	}

	return &Document{buf: owned, db: db, pooled: true}, nil
}

// Root returns the handle to the document's single top-level value.
// Returns an invalid-KDL error only in the degenerate case of an empty
// document, which the parser never actually produces (a complete KDL
// document always has exactly one root row).
func (d *Document) Root() (Element, error) {
	if err := d.checkAlive(); err != nil {
		return Element{}, err
	}
	if d.db.rowCount() == 0 {
		return Element{}, newError(ErrInvalidKDL, "document has no root value")
	}
	return Element{doc: d, offset: 0}, nil
}

// IsDisposed reports whether Dispose has completed on this Document.
func (d *Document) IsDisposed() bool {
	return atomic.LoadInt32(&d.disposed) != 0
}

func (d *Document) checkAlive() error {
	if d.IsDisposed() {
		return newError(ErrDisposed, "document is disposed")
	}
	return nil
}

// Dispose releases pooled memory back to the pools. Idempotent: only the
// goroutine that wins the compare-and-swap from 0 to 1 performs the
// release; later calls (concurrent or repeated) are no-ops (spec §5.1).
// Documents produced by CloneSubtree are not pooled and never release
// anything here — they're ordinary garbage-collected values.
func (d *Document) Dispose() {
	if !d.pooled {
		return
	}
	if !atomic.CompareAndSwapInt32(&d.disposed, 0, 1) {
		return
	}
	if d.db != nil {
		d.db.dispose()
	}
	if d.pooled && d.buf != nil {
		putByteBuffer(d.buf)
	}
	d.buf = nil
}
