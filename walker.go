package tabvault

import (
	"context"
	"iter"
)

// TreeWalker is a forward-only lazy cursor over a tree's entries and the
// entries of all its sub-trees, in pre-order. Sub-trees are resolved from
// the store one at a time, so memory stays bounded by tree depth rather
// than subtree size.
//
// Entry returns a value snapshot: advancing the walker never invalidates a
// previously returned entry. Independently constructed walkers over the
// same tree do not interfere.
type TreeWalker struct {
	ctx   context.Context
	store ObjectStore

	frames  []walkFrame
	cur     TreeEntry
	started bool
	err     error
}

type walkFrame struct {
	prefix  string
	entries []TreeEntry
	next    int
}

// NewTreeWalker returns a walker positioned before the first entry of
// tree. A nil tree yields an exhausted walker.
func NewTreeWalker(ctx context.Context, store ObjectStore, tree *Tree) *TreeWalker {
	w := &TreeWalker{ctx: ctx, store: store}
	if tree != nil {
		w.frames = append(w.frames, walkFrame{entries: tree.entries})
	}
	return w
}

// Next advances to the next entry in pre-order, entering sub-trees as they
// are encountered. It returns false when the traversal is exhausted or
// failed; check Err afterwards to tell the two apart.
func (w *TreeWalker) Next() bool {
	if w.err != nil {
		return false
	}

	if w.started {
		if w.cur.Kind == KindTree {
			sub, err := w.store.LookupTree(w.ctx, w.cur.ID)
			if err != nil {
				w.err = err
				return false
			}
			w.frames = append(w.frames, walkFrame{prefix: w.cur.Path, entries: sub.entries})
		} else if len(w.frames) > 0 {
			w.frames[len(w.frames)-1].next++
		}
	}
	w.started = true

	for len(w.frames) > 0 {
		top := &w.frames[len(w.frames)-1]
		if top.next < len(top.entries) {
			entry := top.entries[top.next]
			entry.Path = joinPath(top.prefix, entry.Name)
			w.cur = entry
			return true
		}

		// The current tree is exhausted; resume iterating its parent.
		w.frames = w.frames[:len(w.frames)-1]
		if len(w.frames) > 0 {
			w.frames[len(w.frames)-1].next++
		}
	}
	return false
}

// Entry returns the entry at the current position. Valid after Next has
// returned true.
func (w *TreeWalker) Entry() TreeEntry {
	return w.cur
}

// Err returns the first store failure encountered, if any.
func (w *TreeWalker) Err() error {
	return w.err
}

// All adapts the remaining traversal to a range-over iterator. The walker
// is consumed; check Err after the loop.
func (w *TreeWalker) All() iter.Seq[TreeEntry] {
	return func(yield func(TreeEntry) bool) {
		for w.Next() {
			if !yield(w.Entry()) {
				return
			}
		}
	}
}

// BlobWalker is a forward-only lazy cursor over all blobs in a tree
// hierarchy. Tree entries are descended into transparently and never
// yielded; commit and tag entries are skipped. Blob payloads are loaded
// one at a time, on demand.
type BlobWalker struct {
	ctx     context.Context
	store   ObjectStore
	entries *TreeWalker
	cur     *Blob
	err     error
}

// NewBlobWalker returns a walker over all blobs beneath tree. A nil tree
// yields an exhausted walker.
func NewBlobWalker(ctx context.Context, store ObjectStore, tree *Tree) *BlobWalker {
	return &BlobWalker{
		ctx:     ctx,
		store:   store,
		entries: NewTreeWalker(ctx, store, tree),
	}
}

// Next advances to the next blob. It returns false when the traversal is
// exhausted or failed; check Err afterwards to tell the two apart.
func (w *BlobWalker) Next() bool {
	if w.err != nil {
		return false
	}

	for w.entries.Next() {
		entry := w.entries.Entry()
		if entry.Kind != KindBlob {
			continue
		}

		blob, err := w.store.LookupBlob(w.ctx, entry.ID)
		if err != nil {
			w.err = err
			return false
		}
		w.cur = blob.withPath(entry.Path)
		return true
	}

	w.err = w.entries.Err()
	return false
}

// Blob returns the blob at the current position. Valid after Next has
// returned true. Each position yields a distinct value; advancing does not
// invalidate it.
func (w *BlobWalker) Blob() *Blob {
	return w.cur
}

// Err returns the first store failure encountered, if any.
func (w *BlobWalker) Err() error {
	return w.err
}

// All adapts the remaining traversal to a range-over iterator. The walker
// is consumed; check Err after the loop.
func (w *BlobWalker) All() iter.Seq[*Blob] {
	return func(yield func(*Blob) bool) {
		for w.Next() {
			if !yield(w.Blob()) {
				return
			}
		}
	}
}
