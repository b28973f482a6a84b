package tabvault

import (
	"context"
	"errors"
	"fmt"
)

// Dataset is a facade over one discovered dataset. It records the
// dataset's logical root path and borrows the store and root tree it was
// discovered from; it owns none of the trees it reports. Every accessor
// re-resolves from the store, so results always reflect the root tree the
// dataset was discovered in and two accesses may return distinct but
// structurally identical values.
type Dataset struct {
	store ObjectStore
	root  *Tree
	path  string
}

// Path returns the dataset's logical root path within the scanned
// hierarchy. A dataset rooted at the scanned tree itself has path "".
func (d Dataset) Path() string {
	return d.path
}

// Tree resolves the dataset's root tree by path from the root tree the
// dataset was discovered in.
func (d Dataset) Tree(ctx context.Context) (*Tree, error) {
	if d.path == "" {
		return d.root, nil
	}

	entry, err := d.root.LookupEntryByPath(ctx, d.path)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", d.path, err)
	}

	tree, err := d.store.LookupTree(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", d.path, err)
	}
	return tree.withPath(d.path), nil
}

// FeaturesTree resolves the dataset's feature sub-tree, located at the
// fixed path ".table-dataset/feature" under the dataset root. It fails
// with ErrNotFound when the dataset has no feature tree.
func (d Dataset) FeaturesTree(ctx context.Context) (*Tree, error) {
	root, err := d.Tree(ctx)
	if err != nil {
		return nil, err
	}

	featuresPath := DatasetDirName + "/" + featuresDirName
	entry, err := root.LookupEntryByPath(ctx, featuresPath)
	if err != nil {
		return nil, fmt.Errorf("dataset %q features: %w", d.path, err)
	}
	if entry.Kind != KindTree {
		return nil, fmt.Errorf("dataset %q features: %w", d.path, ErrWrongKind)
	}

	tree, err := d.store.LookupTree(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("dataset %q features: %w", d.path, err)
	}
	return tree.withPath(joinPath(d.path, featuresPath)), nil
}

// FeatureBlobs returns a lazy walker over the dataset's feature blobs.
// Tree entries inside the feature sub-tree are descended into without
// being yielded; only blobs come back, in stable store order. A dataset
// without a feature sub-tree yields an empty (already exhausted) walker
// rather than an error.
func (d Dataset) FeatureBlobs(ctx context.Context) (*BlobWalker, error) {
	features, err := d.FeaturesTree(ctx)
	if errors.Is(err, ErrNotFound) {
		return NewBlobWalker(ctx, d.store, nil), nil
	}
	if err != nil {
		return nil, err
	}
	return NewBlobWalker(ctx, d.store, features), nil
}
