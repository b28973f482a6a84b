package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts Options) *LocalStore {
	t.Helper()

	s, err := NewLocalStore(afero.NewMemMapFs(), "repo", opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	data := []byte("some object bytes")
	hash, err := s.Put(ctx, data)
	require.NoError(t, err)

	want := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(want[:]), hash)

	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	_, err := s.Get(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	h1, err := s.Put(ctx, []byte("dup"))
	require.NoError(t, err)
	h2, err := s.Put(ctx, []byte("dup"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHas(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	hash, err := s.Put(ctx, []byte("x"))
	require.NoError(t, err)

	ok, err := s.Has(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Has(ctx, "0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetSurvivesEvict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	data := []byte("cached then evicted")
	hash, err := s.Put(ctx, data)
	require.NoError(t, err)

	s.Evict(hash)

	// A cache miss falls back to the filesystem.
	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCompressedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{CompressionEnabled: true, CompressionLevel: 2})

	// Large and repetitive, so compression actually engages.
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 7)
	}

	hash, err := s.Put(ctx, data)
	require.NoError(t, err)
	s.Evict(hash)

	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{Concurrency: 2})

	objects := map[string][]byte{}
	var hashes []string
	for _, content := range []string{"one", "two", "three", "four"} {
		h := sha256.Sum256([]byte(content))
		hash := hex.EncodeToString(h[:])
		objects[hash] = []byte(content)
		hashes = append(hashes, hash)
	}

	require.NoError(t, s.PutMulti(ctx, objects))

	got, err := s.GetMulti(ctx, hashes)
	require.NoError(t, err)
	assert.Equal(t, objects, got)
}

func TestGetMultiMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	_, err := s.GetMulti(ctx, []string{"doesnotexist"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefs(t *testing.T) {
	s := newTestStore(t, Options{})

	_, err := s.GetRef("heads/main")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutRef("heads/main", "abc123"))
	require.NoError(t, s.PutRef("tags/v1", "def456"))

	hash, err := s.GetRef("heads/main")
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)

	refs, err := s.ListRefs()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"heads/main": "abc123",
		"tags/v1":    "def456",
	}, refs)
}

func TestRefNameValidation(t *testing.T) {
	s := newTestStore(t, Options{})

	assert.Error(t, s.PutRef("../escape", "abc"))
	assert.Error(t, s.PutRef("/abs", "abc"))
	assert.Error(t, s.PutRef("..", "abc"))

	_, err := s.GetRef("../../etc/passwd")
	assert.Error(t, err)
}
