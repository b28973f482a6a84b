package tabvault

import (
	"context"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tabvault/tabvault/internal/store"
)

func newTestODB(t *testing.T) *ODB {
	t.Helper()

	s, err := store.NewLocalStore(afero.NewMemMapFs(), "repo", store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	return NewODB(s)
}

// buildTree writes the given path → content map as a snapshot and returns
// its root tree.
func buildTree(t *testing.T, odb *ODB, files map[string]string) *Tree {
	t.Helper()
	ctx := context.Background()

	builder := NewTreeBuilder(odb)

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		require.NoError(t, builder.AddBlob(p, []byte(files[p])))
	}

	rootID, err := builder.Write(ctx)
	require.NoError(t, err)

	tree, err := odb.LookupTree(ctx, rootID)
	require.NoError(t, err)
	return tree
}
