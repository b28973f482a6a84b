package tabvault

import (
	"context"
	"fmt"
)

// DatasetDirName is the reserved marker directory name. A tree entry with
// this name identifies its parent tree as a dataset root.
const DatasetDirName = ".table-dataset"

// featuresDirName is the fixed sub-directory of the marker holding feature
// blobs.
const featuresDirName = "feature"

// RepoStructure scans a root tree for version-controlled datasets. It
// borrows the store handle and root tree from its caller and holds no
// other state; construction never fails, validation happens during
// GetDatasets.
type RepoStructure struct {
	store ObjectStore
	root  *Tree
}

// NewRepoStructure returns a structure scanner over root.
func NewRepoStructure(store ObjectStore, root *Tree) *RepoStructure {
	return &RepoStructure{store: store, root: root}
}

// RootTree returns the tree the structure was built over.
func (s *RepoStructure) RootTree() *Tree {
	return s.root
}

// GetDatasets walks the root tree in pre-order and returns every dataset
// it contains, in depth-first parent-before-child order. The sibling order
// is the store's native (name) order, so results are deterministic for a
// fixed tree and repeated calls return equal collections.
//
// A dataset is identified by a tree entry named DatasetDirName; the
// dataset's root is the entry's parent tree, and the scan never descends
// into the marker itself, so datasets cannot be discovered nested inside
// another dataset's marker subtree.
//
// Discovery is all-or-nothing: a marker that cannot be dereferenced as a
// tree, or a parent that fails to resolve, aborts the scan with an
// *IntegrityError naming the offending path, and no partial list is
// returned.
func (s *RepoStructure) GetDatasets(ctx context.Context) ([]Dataset, error) {
	var datasets []Dataset

	err := s.root.Walk(ctx, func(parentPath string, entry TreeEntry) (WalkAction, error) {
		if entry.Kind != KindTree || entry.Name != DatasetDirName {
			return Descend, nil
		}

		// Validate the marker dereferences as a tree before accepting it.
		if _, err := s.store.LookupTree(ctx, entry.ID); err != nil {
			return Prune, &IntegrityError{Path: entry.Path, Err: fmt.Errorf("dataset marker: %w", err)}
		}

		// The dataset root is the marker's parent. An empty parent path
		// denotes the root tree itself, which always resolves.
		parentEntry, err := s.root.LookupEntryByPath(ctx, parentPath)
		if err != nil {
			return Prune, &IntegrityError{Path: entry.Path, Err: fmt.Errorf("resolve dataset root %q: %w", parentPath, err)}
		}
		if _, err := s.store.LookupTree(ctx, parentEntry.ID); err != nil {
			return Prune, &IntegrityError{Path: entry.Path, Err: fmt.Errorf("resolve dataset root %q: %w", parentPath, err)}
		}

		datasets = append(datasets, Dataset{
			store: s.store,
			root:  s.root,
			path:  parentPath,
		})
		return Prune, nil
	})
	if err != nil {
		return nil, err
	}

	return datasets, nil
}
