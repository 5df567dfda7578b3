//go:build integration

package vecindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labaid/labaid/internal/store"
)

// setupTestIndex connects to a local Qdrant and ensures a scratch collection.
// Skips when Qdrant is not running.
func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New("localhost", 6334, "labaid_test_chunks")
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	// Start from a clean collection so repeated runs see the same state.
	_ = idx.client.DeleteCollection(context.Background(), idx.collection)
	require.NoError(t, idx.EnsureCollection(context.Background()))
	return idx
}

func testVector(fill float32) []float32 {
	v := make([]float32, VectorDimension)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestUpsertMissing_Integration(t *testing.T) {
	idx := setupTestIndex(t)
	defer idx.Close()
	ctx := context.Background()

	entries := []Entry{
		{Key: 1, Vector: testVector(0.1), Text: "replace the lamp", DocumentID: 1, ChunkIndex: 0},
		{Key: 2, Vector: testVector(0.2), Text: "purge the pump", DocumentID: 1, ChunkIndex: 1},
	}

	_, err := idx.UpsertMissing(ctx, entries)
	require.NoError(t, err)

	// Second call with an overlapping batch adds only the new key.
	added, err := idx.UpsertMissing(ctx, append(entries, Entry{
		Key: 3, Vector: testVector(0.3), Text: "flush the column", DocumentID: 2, ChunkIndex: 0,
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	keys, err := idx.ExistingKeys(ctx)
	require.NoError(t, err)
	for _, want := range []store.ChunkKey{1, 2, 3} {
		assert.Contains(t, keys, want)
	}

	hits, err := idx.Search(ctx, testVector(0.1), 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.LessOrEqual(t, len(hits), 2)
	assert.NotEmpty(t, hits[0].Text)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	idx := setupTestIndex(t)
	defer idx.Close()

	_, err := idx.Search(context.Background(), []float32{0.1, 0.2}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
