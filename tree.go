package tabvault

import (
	"context"
	"fmt"
	"strings"
)

// TreeEntry describes one entry of a tree during traversal or as a lookup
// result. Entries are plain values; they are never persisted on their own.
type TreeEntry struct {
	Path string // slash-separated path relative to the traversal root
	Name string // leaf name
	ID   ObjectID
	Kind ObjectKind
}

// IsTree reports whether the entry points at a sub-tree.
func (e TreeEntry) IsTree() bool {
	return e.Kind == KindTree
}

// Tree is an immutable ordered list of named entries. Entries are stored
// sorted by name, which fixes the sibling order for every traversal.
// Trees never mutate after construction and are safe to share across
// goroutines without synchronization.
type Tree struct {
	id      ObjectID
	path    string // path this tree was resolved at; "" for a root tree
	entries []TreeEntry
	store   ObjectStore
}

// ID returns the tree's object id.
func (t *Tree) ID() ObjectID {
	return t.id
}

// Path returns the path this tree was resolved at, relative to the root
// tree it came from. A root tree has path "".
func (t *Tree) Path() string {
	return t.path
}

// Len returns the number of direct entries.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Entries returns the direct entries in stored (name) order. The returned
// slice is a copy; callers may retain or modify it freely.
func (t *Tree) Entries() []TreeEntry {
	entries := make([]TreeEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// withPath returns a shallow copy of the tree recorded at the given path.
func (t *Tree) withPath(path string) *Tree {
	clone := *t
	clone.path = path
	return &clone
}

// entryForSelf returns the entry describing the tree itself, used when a
// lookup path resolves to the tree rather than one of its entries.
func (t *Tree) entryForSelf() TreeEntry {
	name := t.path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return TreeEntry{Path: "", Name: name, ID: t.id, Kind: KindTree}
}

// LookupEntryByPath resolves a slash-separated path one segment at a time.
// Every segment except the last must resolve to a sub-tree. The empty path
// resolves to the tree itself, never to an error. Missing segments fail
// with ErrNotFound.
func (t *Tree) LookupEntryByPath(ctx context.Context, path string) (TreeEntry, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return t.entryForSelf(), nil
	}

	segments := strings.Split(path, "/")
	current := t

	for i, segment := range segments {
		entry, ok := current.lookupEntryByName(segment)
		if !ok {
			return TreeEntry{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		entry.Path = strings.Join(segments[:i+1], "/")

		if i == len(segments)-1 {
			return entry, nil
		}

		if entry.Kind != KindTree {
			return TreeEntry{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}

		sub, err := t.store.LookupTree(ctx, entry.ID)
		if err != nil {
			return TreeEntry{}, fmt.Errorf("%s: %w", entry.Path, err)
		}
		current = sub
	}

	// Unreachable: the final segment always returns above.
	return TreeEntry{}, fmt.Errorf("%s: %w", path, ErrNotFound)
}

// lookupEntryByName finds a direct entry by its leaf name.
func (t *Tree) lookupEntryByName(name string) (TreeEntry, bool) {
	for _, entry := range t.entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return TreeEntry{}, false
}

// WalkAction tells Walk how to proceed after visiting an entry.
type WalkAction int

const (
	// Descend expands the visited entry if it is a tree.
	Descend WalkAction = iota

	// Prune treats the visited entry as terminal: its subtree is skipped,
	// sibling traversal continues unaffected.
	Prune
)

// WalkFunc visits one entry during a walk. parentPath is the path of the
// entry's parent tree relative to the walk root ("" for direct children of
// the root). Returning an error aborts the walk and surfaces the error.
type WalkFunc func(parentPath string, entry TreeEntry) (WalkAction, error)

// Walk traverses the tree depth-first in pre-order, lazily resolving
// sub-trees from the store as it descends. Entry paths are relative to the
// receiver. Cost is linear in entries visited; pruning skips whole
// subtrees without resolving them.
func (t *Tree) Walk(ctx context.Context, fn WalkFunc) error {
	return t.walk(ctx, "", fn)
}

func (t *Tree) walk(ctx context.Context, prefix string, fn WalkFunc) error {
	for _, entry := range t.entries {
		entry.Path = joinPath(prefix, entry.Name)

		action, err := fn(prefix, entry)
		if err != nil {
			return err
		}

		if entry.Kind != KindTree || action == Prune {
			continue
		}

		sub, err := t.store.LookupTree(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Path, err)
		}
		if err := sub.walk(ctx, entry.Path, fn); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
