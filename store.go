package tabvault

import "context"

// ObjectStore resolves content ids to decoded objects. It is the only
// collaborator the discovery layer depends on; implementations must be
// safe for concurrent reads.
//
// Lookup methods fail with ErrNotFound when the id is absent and with
// ErrWrongKind when the object exists but has a different kind.
type ObjectStore interface {
	// LookupTree resolves an id to a tree.
	LookupTree(ctx context.Context, id ObjectID) (*Tree, error)

	// LookupBlob resolves an id to a blob.
	LookupBlob(ctx context.Context, id ObjectID) (*Blob, error)

	// LookupCommit resolves an id to a commit.
	LookupCommit(ctx context.Context, id ObjectID) (*Commit, error)
}
