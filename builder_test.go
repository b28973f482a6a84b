package tabvault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeBuilderWrite(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)

	builder := NewTreeBuilder(odb)
	require.NoError(t, builder.AddBlob("a/b/c.txt", []byte("hello")))
	require.NoError(t, builder.AddBlob("a/d.txt", []byte("world")))

	rootID, err := builder.Write(ctx)
	require.NoError(t, err)

	tree, err := odb.LookupTree(ctx, rootID)
	require.NoError(t, err)

	entry, err := tree.LookupEntryByPath(ctx, "a/b/c.txt")
	require.NoError(t, err)

	blob, err := odb.LookupBlob(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), blob.Data())
}

func TestTreeBuilderDeterministic(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)

	// Insertion order does not influence the root id.
	b1 := NewTreeBuilder(odb)
	require.NoError(t, b1.AddBlob("x", []byte("1")))
	require.NoError(t, b1.AddBlob("y", []byte("2")))
	id1, err := b1.Write(ctx)
	require.NoError(t, err)

	b2 := NewTreeBuilder(odb)
	require.NoError(t, b2.AddBlob("y", []byte("2")))
	require.NoError(t, b2.AddBlob("x", []byte("1")))
	id2, err := b2.Write(ctx)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
}

func TestTreeBuilderSharedContent(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)

	builder := NewTreeBuilder(odb)
	require.NoError(t, builder.AddBlob("a/same", []byte("payload")))
	require.NoError(t, builder.AddBlob("b/same", []byte("payload")))

	rootID, err := builder.Write(ctx)
	require.NoError(t, err)
	tree, err := odb.LookupTree(ctx, rootID)
	require.NoError(t, err)

	e1, err := tree.LookupEntryByPath(ctx, "a/same")
	require.NoError(t, err)
	e2, err := tree.LookupEntryByPath(ctx, "b/same")
	require.NoError(t, err)

	// Identical bytes share one object.
	assert.Equal(t, e1.ID, e2.ID)
}

func TestTreeBuilderConflicts(t *testing.T) {
	odb := newTestODB(t)
	builder := NewTreeBuilder(odb)

	require.NoError(t, builder.AddBlob("a/file", []byte("x")))

	assert.Error(t, builder.AddBlob("a/file", []byte("again")))
	assert.Error(t, builder.AddBlob("a/file/below", []byte("x")))
	assert.Error(t, builder.AddBlob("", []byte("x")))
	assert.Error(t, builder.AddBlob("//", []byte("x")))
}

func TestTreeBuilderEmpty(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)

	rootID, err := NewTreeBuilder(odb).Write(ctx)
	require.NoError(t, err)

	tree, err := odb.LookupTree(ctx, rootID)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
}
