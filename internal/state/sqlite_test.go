package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	_, err := store.GetEmbeddings(ctx, "m", []string{"a"})
	assert.Error(t, err)
	assert.Error(t, store.PutEmbeddings(ctx, "m", map[string][]float32{"a": {1}}))
	_, err = store.CountEmbeddings(ctx, "m")
	assert.Error(t, err)
	_, err = store.GetSource(ctx, "x")
	assert.Error(t, err)
	assert.Error(t, store.Migrate())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate())

	for _, table := range []string{"embeddings", "sources"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		rows.Close()
	}
}

func TestSQLiteStore_Embeddings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	vectors := map[string][]float32{
		"h1": {0.5, -1.25, 3},
		"h2": {1},
	}
	require.NoError(t, store.PutEmbeddings(ctx, "hash-256", vectors))
	require.NoError(t, store.PutEmbeddings(ctx, "other", map[string][]float32{"h1": {9, 9}}))

	got, err := store.GetEmbeddings(ctx, "hash-256", []string{"h1", "h2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, vectors, got)

	n, err := store.CountEmbeddings(ctx, "hash-256")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Overwrite replaces the vector.
	require.NoError(t, store.PutEmbeddings(ctx, "hash-256", map[string][]float32{"h2": {2, 2}}))
	got, err = store.GetEmbeddings(ctx, "hash-256", []string{"h2"})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, got["h2"])

	got, err = store.GetEmbeddings(ctx, "hash-256", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.PutEmbeddings(ctx, "hash-256", nil))
}

func TestSQLiteStore_EmbeddingsLargeBatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	vectors := make(map[string][]float32)
	hashes := make([]string, 0, 1200)
	for i := range 1200 {
		h := string(rune('a'+i%26)) + string(rune('A'+i/26%26)) + string(rune('0'+i/676))
		hashes = append(hashes, h)
		vectors[h] = []float32{float32(i)}
	}
	require.NoError(t, store.PutEmbeddings(ctx, "m", vectors))

	got, err := store.GetEmbeddings(ctx, "m", hashes)
	require.NoError(t, err)
	assert.Len(t, got, 1200)
}

func TestSQLiteStore_Sources(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	src, err := store.GetSource(ctx, "kb/guide.md")
	require.NoError(t, err)
	assert.Nil(t, src)

	require.NoError(t, store.SetSource(ctx, Source{Path: "kb/guide.md", ContentHash: "abc", Chunks: 3}))
	require.NoError(t, store.SetSource(ctx, Source{Path: "kb/a.md", ContentHash: "def", Chunks: 1}))

	src, err = store.GetSource(ctx, "kb/guide.md")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, "abc", src.ContentHash)
	assert.Equal(t, 3, src.Chunks)
	assert.False(t, src.UpdatedAt.IsZero())

	require.NoError(t, store.SetSource(ctx, Source{Path: "kb/guide.md", ContentHash: "xyz", Chunks: 4}))

	sources, err := store.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "kb/a.md", sources[0].Path)
	assert.Equal(t, "xyz", sources[1].ContentHash)
	assert.Equal(t, 4, sources[1].Chunks)
}

func TestSQLiteStore_FilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.PutEmbeddings(ctx, "m", map[string][]float32{"h": {1, 2}}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetEmbeddings(ctx, "m", []string{"h"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got["h"])
}

func TestVectorCodec(t *testing.T) {
	vec := []float32{0, 1, -1, 3.14159, 1e-7}
	got, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
