package tabvault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabvault/tabvault/internal/store"
)

// ODB is the object database: it decodes raw framed bytes from the
// storage layer into typed Tree/Blob/Commit values and encodes them back.
// It implements ObjectStore.
type ODB struct {
	objects store.Store
}

// NewODB returns an object database over the given raw store.
func NewODB(objects store.Store) *ODB {
	return &ODB{objects: objects}
}

var _ ObjectStore = (*ODB)(nil)

// lookup fetches and unframes an object.
func (o *ODB) lookup(ctx context.Context, id ObjectID) (ObjectKind, []byte, error) {
	data, err := o.objects.Get(ctx, id.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return KindInvalid, nil, fmt.Errorf("object %s: %w", id, ErrNotFound)
		}
		return KindInvalid, nil, fmt.Errorf("object %s: %w", id, err)
	}
	kind, payload, err := decodeObject(data)
	if err != nil {
		return KindInvalid, nil, fmt.Errorf("object %s: %w", id, err)
	}
	return kind, payload, nil
}

// LookupKind returns the kind of the object stored under id.
func (o *ODB) LookupKind(ctx context.Context, id ObjectID) (ObjectKind, error) {
	kind, _, err := o.lookup(ctx, id)
	return kind, err
}

// LookupTree resolves an id to a tree.
func (o *ODB) LookupTree(ctx context.Context, id ObjectID) (*Tree, error) {
	kind, payload, err := o.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != KindTree {
		return nil, fmt.Errorf("object %s is a %s, not a tree: %w", id, kind, ErrWrongKind)
	}

	entries, err := decodeTreeEntries(payload)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	return &Tree{id: id, entries: entries, store: o}, nil
}

// LookupBlob resolves an id to a blob.
func (o *ODB) LookupBlob(ctx context.Context, id ObjectID) (*Blob, error) {
	kind, payload, err := o.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != KindBlob {
		return nil, fmt.Errorf("object %s is a %s, not a blob: %w", id, kind, ErrWrongKind)
	}
	return &Blob{id: id, data: payload}, nil
}

// LookupCommit resolves an id to a commit.
func (o *ODB) LookupCommit(ctx context.Context, id ObjectID) (*Commit, error) {
	kind, payload, err := o.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != KindCommit {
		return nil, fmt.Errorf("object %s is a %s, not a commit: %w", id, kind, ErrWrongKind)
	}

	commit, err := decodeCommit(payload)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	commit.id = id
	return commit, nil
}

// Peel resolves an id to the tree it ultimately points at: a commit peels
// to its root tree, a tree peels to itself. Anything else fails with
// ErrWrongKind.
func (o *ODB) Peel(ctx context.Context, id ObjectID) (*Tree, error) {
	kind, err := o.LookupKind(ctx, id)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindTree:
		return o.LookupTree(ctx, id)
	case KindCommit:
		commit, err := o.LookupCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		return o.LookupTree(ctx, commit.TreeID)
	default:
		return nil, fmt.Errorf("object %s is a %s, cannot peel to tree: %w", id, kind, ErrWrongKind)
	}
}

// Has checks whether id exists in the database.
func (o *ODB) Has(ctx context.Context, id ObjectID) (bool, error) {
	return o.objects.Has(ctx, id.String())
}

// PutBlob stores raw bytes as a blob and returns its id.
func (o *ODB) PutBlob(ctx context.Context, data []byte) (ObjectID, error) {
	id, framed := frameObject(KindBlob, data)
	if _, err := o.objects.Put(ctx, framed); err != nil {
		return ObjectID{}, fmt.Errorf("put blob: %w", err)
	}
	return id, nil
}

// PutTree stores the given entries as a tree, sorted by name, and returns
// its id.
func (o *ODB) PutTree(ctx context.Context, entries []TreeEntry) (ObjectID, error) {
	id, framed := frameObject(KindTree, encodeTreeEntries(entries))
	if _, err := o.objects.Put(ctx, framed); err != nil {
		return ObjectID{}, fmt.Errorf("put tree: %w", err)
	}
	return id, nil
}

// PutCommit stores a commit pointing at treeID and returns it with its id
// set.
func (o *ODB) PutCommit(ctx context.Context, treeID ObjectID, parents []ObjectID, author, message string) (*Commit, error) {
	commit := &Commit{
		TreeID:  treeID,
		Parents: parents,
		Author:  author,
		Message: message,
		Time:    time.Now().UTC().Truncate(time.Second),
	}

	id, framed := frameObject(KindCommit, encodeCommit(commit))
	if _, err := o.objects.Put(ctx, framed); err != nil {
		return nil, fmt.Errorf("put commit: %w", err)
	}
	commit.id = id
	return commit, nil
}
