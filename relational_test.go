package chunkstore

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/chunkstore/driver"
)

func newRelationalStore(t *testing.T, dim int) (*Store, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver(driver.Relational)
	store, err := New(drv, nil, WithEmbeddingDim(dim))
	require.NoError(t, err)
	return store, drv
}

func TestRelational_InsertReturnsID(t *testing.T) {
	ctx := context.Background()
	store, drv := newRelationalStore(t, 2)

	id, err := store.InsertChunkWithEmbedding(ctx, Chunk{
		Entity:    Entity{Content: "a", Filepath: "f", Metadata: map[string]interface{}{"k": "v"}},
		Embedding: []float32{0.5, -1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	require.Len(t, drv.prepared, 1)
	assert.Contains(t, drv.prepared[0], "RETURNING id")

	require.Len(t, drv.committed, 1)
	args := drv.committed[0].args
	require.Len(t, args, 4)
	assert.Equal(t, "a", args[0])
	assert.Equal(t, "f", args[1])
	assert.JSONEq(t, `{"k":"v"}`, args[2].(string))
	vec, ok := args[3].(pgvector.Vector)
	require.True(t, ok, "embedding must bind as pgvector.Vector, got %T", args[3])
	assert.Equal(t, []float32{0.5, -1}, vec.Slice())
}

func TestRelational_BulkInsertWritesBackIDs(t *testing.T) {
	store, drv := newRelationalStore(t, 1)
	chunks := []Chunk{chunkOf("a", 1), chunkOf("b", 2), chunkOf("c", 3), chunkOf("d", 4), chunkOf("e", 5)}
	require.NoError(t, store.BulkInsertChunksWithEmbedding(context.Background(), chunks, 2))
	assert.Equal(t, 3, drv.begun)
	for i, c := range chunks {
		assert.EqualValues(t, i+1, c.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, drv.contents())
}

func TestInsert_MissingID(t *testing.T) {
	for _, kind := range []driver.Kind{driver.Relational, driver.Embedded} {
		t.Run(string(kind), func(t *testing.T) {
			ctx := context.Background()
			drv := newFakeDriver(kind)
			drv.noID = true
			store, err := New(drv, nil, WithEmbeddingDim(1))
			require.NoError(t, err)

			id, err := store.InsertChunkWithEmbedding(ctx, chunkOf("a", 1))
			assert.ErrorIs(t, err, errMissingID)
			assert.Zero(t, id)

			err = store.BulkInsertChunksWithEmbedding(ctx, []Chunk{chunkOf("b", 1)}, 0)
			var txErr *TransactionError
			require.ErrorAs(t, err, &txErr)
			assert.ErrorIs(t, err, errMissingID)
			assert.Equal(t, 1, drv.rolledBack)
		})
	}
}

func TestRelational_SearchArgs(t *testing.T) {
	ctx := context.Background()
	store, drv := newRelationalStore(t, 2)
	drv.resultRows = [][]interface{}{
		{int64(7), "near", "docs/a.md", `{"page":2}`, 0.25},
		{int64(9), "far", "docs/b.md", `{}`, 0.75},
	}

	results, err := store.SearchSimilarByEmbedding(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Len(t, drv.queried, 1)
	args := drv.queried[0]
	require.Len(t, args, 2)
	vec, ok := args[0].(pgvector.Vector)
	require.True(t, ok, "query vector must bind as pgvector.Vector, got %T", args[0])
	assert.Equal(t, []float32{1, 0}, vec.Slice())
	assert.Equal(t, DefaultK, args[1])

	require.Len(t, results, 2)
	assert.EqualValues(t, 7, results[0].ID)
	assert.Equal(t, "near", results[0].Content)
	assert.Equal(t, map[string]interface{}{"page": float64(2)}, results[0].Metadata)
	assert.Equal(t, 0.25, results[0].Distance)
	assert.Nil(t, results[1].Metadata)

	_, err = store.SearchSimilarByEmbeddingInFile(ctx, []float32{0, 1}, "docs/a.md", 3)
	require.NoError(t, err)
	require.Len(t, drv.queried, 2)
	args = drv.queried[1]
	require.Len(t, args, 3)
	assert.Equal(t, "docs/a.md", args[1])
	assert.Equal(t, 3, args[2])
}

func TestRelational_GetChunkDecodesVector(t *testing.T) {
	store, drv := newRelationalStore(t, 3)
	drv.resultRows = [][]interface{}{{int64(3), "c", "f", `{"x":true}`, "[1,2.5,-3]"}}

	chunk, err := store.GetChunk(context.Background(), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, chunk.ID)
	assert.Equal(t, []float32{1, 2.5, -3}, chunk.Embedding)
	assert.Equal(t, map[string]interface{}{"x": true}, chunk.Metadata)
	assert.Equal(t, []interface{}{int64(3)}, drv.queried[0])

	drv.resultRows = nil
	_, err = store.GetChunk(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
}
