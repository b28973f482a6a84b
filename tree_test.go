package tabvault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeEntriesSorted(t *testing.T) {
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"zebra":  "z",
		"apple":  "a",
		"mango":  "m",
		"sub/if": "s",
	})

	entries := tree.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "apple", entries[0].Name)
	assert.Equal(t, "mango", entries[1].Name)
	assert.Equal(t, "sub", entries[2].Name)
	assert.Equal(t, "zebra", entries[3].Name)

	// Entries returns a copy.
	entries[0].Name = "mutated"
	assert.Equal(t, "apple", tree.Entries()[0].Name)
}

func TestLookupEntryByPath(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/b/c.csv": "data",
		"a/d.csv":   "data2",
		"top.txt":   "top",
	})

	entry, err := tree.LookupEntryByPath(ctx, "a/b/c.csv")
	require.NoError(t, err)
	assert.Equal(t, "c.csv", entry.Name)
	assert.Equal(t, "a/b/c.csv", entry.Path)
	assert.Equal(t, KindBlob, entry.Kind)

	entry, err = tree.LookupEntryByPath(ctx, "a/b")
	require.NoError(t, err)
	assert.True(t, entry.IsTree())
	assert.Equal(t, "a/b", entry.Path)

	// Leading and trailing slashes are ignored.
	entry, err = tree.LookupEntryByPath(ctx, "/a/d.csv/")
	require.NoError(t, err)
	assert.Equal(t, "d.csv", entry.Name)
}

func TestLookupEntryByPathEmpty(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{"x": "y"})

	entry, err := tree.LookupEntryByPath(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, tree.ID(), entry.ID)
	assert.True(t, entry.IsTree())
}

func TestLookupEntryByPathNotFound(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{"a/b.csv": "data"})

	_, err := tree.LookupEntryByPath(ctx, "a/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tree.LookupEntryByPath(ctx, "missing/b.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	// A blob in a non-final position fails the lookup.
	_, err = tree.LookupEntryByPath(ctx, "a/b.csv/deeper")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalkPreOrder(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one":   "1",
		"a/two":   "2",
		"b/three": "3",
		"top":     "t",
	})

	var visited []string
	err := tree.Walk(ctx, func(parentPath string, entry TreeEntry) (WalkAction, error) {
		visited = append(visited, entry.Path)
		return Descend, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a/one", "a/two", "b", "b/three", "top"}, visited)
}

func TestWalkPrune(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one":   "1",
		"a/two":   "2",
		"b/three": "3",
	})

	var visited []string
	err := tree.Walk(ctx, func(parentPath string, entry TreeEntry) (WalkAction, error) {
		visited = append(visited, entry.Path)
		if entry.Name == "a" {
			return Prune, nil
		}
		return Descend, nil
	})
	require.NoError(t, err)

	// Pruning a subtree skips its contents but not its siblings.
	assert.Equal(t, []string{"a", "b", "b/three"}, visited)
}

func TestWalkAbortsOnError(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{
		"a/one": "1",
		"b/two": "2",
	})

	boom := errors.New("boom")
	var visited int
	err := tree.Walk(ctx, func(parentPath string, entry TreeEntry) (WalkAction, error) {
		visited++
		if entry.Name == "a" {
			return Descend, boom
		}
		return Descend, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, visited)
}

func TestWalkParentPath(t *testing.T) {
	ctx := context.Background()
	odb := newTestODB(t)
	tree := buildTree(t, odb, map[string]string{"a/b/c": "x"})

	parents := make(map[string]string)
	err := tree.Walk(ctx, func(parentPath string, entry TreeEntry) (WalkAction, error) {
		parents[entry.Path] = parentPath
		return Descend, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "", parents["a"])
	assert.Equal(t, "a", parents["a/b"])
	assert.Equal(t, "a/b", parents["a/b/c"])
}
