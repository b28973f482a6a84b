package tabvault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps an ObjectStore and counts tree resolutions, to
// observe how lazily a traversal touches the store.
type countingStore struct {
	ObjectStore
	treeLookups int
}

func (c *countingStore) LookupTree(ctx context.Context, id ObjectID) (*Tree, error) {
	c.treeLookups++
	return c.ObjectStore.LookupTree(ctx, id)
}

func collectPaths(t *testing.T, w *TreeWalker) []string {
	t.Helper()
	var paths []string
	for w.Next() {
		paths = append(paths, w.Entry().Path)
	}
	require.NoError(t, w.Err())
	return paths
}

func TestTreeWalkerPreOrder(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one":   "1",
		"a/sub/x": "x",
		"b/two":   "2",
		"top":     "t",
	})

	w := NewTreeWalker(ctx, odb, tree)
	assert.Equal(t,
		[]string{"a", "a/one", "a/sub", "a/sub/x", "b", "b/two", "top"},
		collectPaths(t, w))

	// Exhausted walkers stay exhausted.
	assert.False(t, w.Next())
	assert.NoError(t, w.Err())
}

func TestTreeWalkerNilTree(t *testing.T) {
	w := NewTreeWalker(context.Background(), newTestODB(t), nil)
	assert.False(t, w.Next())
	assert.NoError(t, w.Err())
}

func TestTreeWalkerLazy(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one": "1",
		"b/two": "2",
	})

	counting := &countingStore{ObjectStore: odb}
	w := NewTreeWalker(ctx, counting, tree)

	// Positioning on the first entry resolves nothing.
	require.True(t, w.Next())
	assert.Equal(t, "a", w.Entry().Path)
	assert.Equal(t, 0, counting.treeLookups)

	// Stepping into "a" resolves exactly that subtree.
	require.True(t, w.Next())
	assert.Equal(t, "a/one", w.Entry().Path)
	assert.Equal(t, 1, counting.treeLookups)
}

func TestTreeWalkerIndependence(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one": "1",
		"b/two": "2",
	})

	w1 := NewTreeWalker(ctx, odb, tree)
	w2 := NewTreeWalker(ctx, odb, tree)

	require.True(t, w1.Next())
	require.True(t, w1.Next())
	first := w1.Entry()

	// w2 is unaffected by advancing w1.
	require.True(t, w2.Next())
	assert.Equal(t, "a", w2.Entry().Path)

	// Entries are value snapshots; advancing does not invalidate them.
	require.True(t, w1.Next())
	assert.Equal(t, "a/one", first.Path)
}

func TestTreeWalkerAll(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one": "1",
		"b":     "2",
	})

	w := NewTreeWalker(ctx, odb, tree)
	var paths []string
	for entry := range w.All() {
		paths = append(paths, entry.Path)
	}
	require.NoError(t, w.Err())
	assert.Equal(t, []string{"a", "a/one", "b"}, paths)
}

func TestBlobWalker(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one":   "payload-1",
		"a/sub/x": "payload-x",
		"b":       "payload-b",
	})

	w := NewBlobWalker(ctx, odb, tree)

	var paths []string
	var sizes []int64
	for w.Next() {
		paths = append(paths, w.Blob().Path())
		sizes = append(sizes, w.Blob().Size())
	}
	require.NoError(t, w.Err())

	// Tree entries are descended into, never yielded.
	assert.Equal(t, []string{"a/one", "a/sub/x", "b"}, paths)
	assert.Equal(t, []int64{9, 9, 9}, sizes)
}

func TestBlobWalkerPayloads(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"x": "first",
		"y": "second",
	})

	w := NewBlobWalker(ctx, odb, tree)

	require.True(t, w.Next())
	first := w.Blob()
	assert.Equal(t, []byte("first"), first.Data())
	assert.Equal(t, "x", first.Name())

	require.True(t, w.Next())
	assert.Equal(t, []byte("second"), w.Blob().Data())

	// The earlier blob is still intact.
	assert.Equal(t, []byte("first"), first.Data())

	assert.False(t, w.Next())
	assert.NoError(t, w.Err())
}

func TestBlobWalkerNilTree(t *testing.T) {
	w := NewBlobWalker(context.Background(), newTestODB(t), nil)
	assert.False(t, w.Next())
	assert.NoError(t, w.Err())
}

func TestBlobWalkerAll(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/x": "1",
		"a/y": "22",
	})

	w := NewBlobWalker(ctx, odb, tree)
	var total int64
	for b := range w.All() {
		total += b.Size()
	}
	require.NoError(t, w.Err())
	assert.Equal(t, int64(3), total)
}

func TestTreeWalkerMissingSubtree(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)

	// A tree whose sub-tree entry points at an id that is not stored.
	missing := ComputeObjectID([]byte("never stored"))
	rootID, err := odb.PutTree(ctx, []TreeEntry{
		{Name: "broken", ID: missing, Kind: KindTree},
	})
	require.NoError(t, err)
	tree, err := odb.LookupTree(ctx, rootID)
	require.NoError(t, err)

	w := NewTreeWalker(ctx, odb, tree)
	require.True(t, w.Next())
	assert.Equal(t, "broken", w.Entry().Path)

	assert.False(t, w.Next())
	assert.ErrorIs(t, w.Err(), ErrNotFound)
}
