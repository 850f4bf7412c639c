package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/embedding"
	"github.com/viant/chunkstore/vector"
)

func chunkOf(content string, embedding ...float32) Chunk {
	return Chunk{Entity: Entity{Content: content, Filepath: "f/" + content}, Embedding: embedding}
}

func TestNew_Dimension(t *testing.T) {
	testCases := []struct {
		description string
		provider    embedding.Provider
		opts        []Option
		expect      int
	}{
		{description: "default", expect: embedding.DefaultDimension},
		{description: "provider", provider: &stubProvider{dim: 16}, expect: 16},
		{description: "option wins", provider: &stubProvider{dim: 16}, opts: []Option{WithEmbeddingDim(4)}, expect: 4},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			store, err := New(newFakeDriver(driver.Embedded), tc.provider, tc.opts...)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, store.Dimension())
		})
	}

	_, err := New(nil, nil)
	assert.Error(t, err)
	_, err = New(newFakeDriver("mysql"), nil)
	assert.Error(t, err)

	store, err := New(newFakeDriver(driver.Relational), nil, WithEmbeddingDim(2))
	require.NoError(t, err)
	assert.IsType(t, &postgresBackend{}, store.backend)
}

func TestInsertChunkWithEmbedding_DimensionMismatch(t *testing.T) {
	for _, v := range [][]float32{{1, 0}, {1, 0, 0, 0}, nil} {
		drv := newFakeDriver(driver.Embedded)
		store, err := New(drv, nil, WithEmbeddingDim(3))
		require.NoError(t, err)

		_, err = store.InsertChunkWithEmbedding(context.Background(), chunkOf("a", v...))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		var dimErr *DimensionMismatchError
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 3, dimErr.Expected)
		assert.Equal(t, len(v), dimErr.Actual)
		assert.Empty(t, drv.committed)
		assert.Empty(t, drv.prepared, "validation must precede any I/O")
	}
}

func TestInsertChunkWithEmbedding_Encodes(t *testing.T) {
	drv := newFakeDriver(driver.Embedded)
	store, err := New(drv, nil, WithEmbeddingDim(2))
	require.NoError(t, err)

	c := chunkOf("a", 1, 0.5)
	c.ID = 99
	c.Metadata = map[string]interface{}{"z": 1, "a": "x", "content": "dup", "id": 7}
	id, err := store.InsertChunkWithEmbedding(context.Background(), c)
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	require.Len(t, drv.committed, 1)

	args := drv.committed[0].args
	assert.Equal(t, "a", args[0])
	assert.Equal(t, "f/a", args[1])
	assert.Equal(t, `{"a":"x","z":1}`, args[2])
	blob, _ := vector.EncodeEmbedding([]float32{1, 0.5})
	assert.Equal(t, blob, args[3])
}

func TestBulkInsertChunksWithEmbedding_SliceAtomicity(t *testing.T) {
	drv := newFakeDriver(driver.Embedded)
	store, err := New(drv, nil, WithEmbeddingDim(2))
	require.NoError(t, err)

	var chunks []Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, chunkOf(fmt.Sprintf("c%d", i), float32(i), 1))
	}
	chunks[4].Embedding = []float32{1}

	err = store.BulkInsertChunksWithEmbedding(context.Background(), chunks, 3)
	require.Error(t, err)
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 1, txErr.Slice)
	assert.Equal(t, 3, txErr.Offset)
	assert.Equal(t, 3, txErr.Size)
	var dimErr *DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 1, dimErr.Actual)

	assert.Equal(t, []string{"c0", "c1", "c2"}, drv.contents())
	assert.Equal(t, 1, drv.begun, "invalid slice must fail before its transaction and later slices must not run")
	for i := 0; i < 3; i++ {
		assert.NotZero(t, chunks[i].ID)
	}
	for i := 3; i < len(chunks); i++ {
		assert.Zero(t, chunks[i].ID)
	}
}

func TestBulkInsertChunksWithEmbedding_DriverFailureRollsBackSlice(t *testing.T) {
	drv := newFakeDriver(driver.Embedded)
	drv.failContent = "c4"
	store, err := New(drv, nil, WithEmbeddingDim(2))
	require.NoError(t, err)

	var chunks []Chunk
	for i := 0; i < 7; i++ {
		chunks = append(chunks, chunkOf(fmt.Sprintf("c%d", i), 1, float32(i)))
	}
	err = store.BulkInsertChunksWithEmbedding(context.Background(), chunks, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, errFakeConstraint)
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 1, txErr.Slice)

	assert.Equal(t, []string{"c0", "c1", "c2"}, drv.contents())
	assert.Equal(t, 2, drv.begun)
	assert.Equal(t, 1, drv.rolledBack)
}

func TestBulkInsertChunksWithEmbedding_BatchSize(t *testing.T) {
	testCases := []struct {
		description string
		count       int
		batchSize   int
		opts        []Option
		expectTx    int
	}{
		{description: "default 500", count: 1001, expectTx: 3},
		{description: "explicit", count: 10, batchSize: 4, expectTx: 3},
		{description: "option default", count: 10, opts: []Option{WithBatchSize(5)}, expectTx: 2},
		{description: "empty", count: 0, batchSize: 4, expectTx: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			drv := newFakeDriver(driver.Embedded)
			store, err := New(drv, nil, append([]Option{WithEmbeddingDim(1)}, tc.opts...)...)
			require.NoError(t, err)
			chunks := make([]Chunk, tc.count)
			for i := range chunks {
				chunks[i] = chunkOf(fmt.Sprintf("c%d", i), float32(i))
			}
			require.NoError(t, store.BulkInsertChunksWithEmbedding(context.Background(), chunks, tc.batchSize))
			assert.Equal(t, tc.expectTx, drv.begun)
			assert.Len(t, drv.committed, tc.count)
			for i, r := range drv.committed {
				assert.Equal(t, fmt.Sprintf("c%d", i), r.args[0], "order must be preserved")
			}
		})
	}
}

func TestStore_Closed(t *testing.T) {
	drv := newFakeDriver(driver.Embedded)
	store, err := New(drv, &stubProvider{dim: 2})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.True(t, drv.closed)

	ctx := context.Background()
	checks := map[string]error{}
	_, checks["insert"] = store.InsertChunkWithEmbedding(ctx, chunkOf("a", 1, 0))
	checks["bulk"] = store.BulkInsertChunksWithEmbedding(ctx, []Chunk{chunkOf("a", 1, 0)}, 0)
	_, checks["search"] = store.SearchSimilarByEmbedding(ctx, []float32{1, 0}, 1)
	_, checks["insert text"] = store.InsertChunk(ctx, Entity{Content: "a"})
	checks["bulk text"] = store.BulkInsertChunks(ctx, []Entity{{Content: "a"}}, 0)
	_, checks["search text"] = store.SearchSimilar(ctx, "a", 1)
	checks["init"] = store.InitSchema(ctx)
	_, checks["count"] = store.Count(ctx)
	_, checks["delete"] = store.DeleteChunks(ctx, 1)
	checks["close"] = store.Close()
	for name, err := range checks {
		assert.ErrorIs(t, err, ErrClosed, name)
		var closedErr *ClosedStoreError
		assert.ErrorAs(t, err, &closedErr, name)
	}
}

func TestTextAPI_Provider(t *testing.T) {
	ctx := context.Background()

	store, err := New(newFakeDriver(driver.Embedded), nil, WithEmbeddingDim(2))
	require.NoError(t, err)
	_, err = store.InsertChunk(ctx, Entity{Content: "a"})
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.ErrorIs(t, store.BulkInsertChunks(ctx, []Entity{{Content: "a"}}, 0), ErrNoProvider)

	drv := newFakeDriver(driver.Embedded)
	store, err = New(drv, &stubProvider{dim: 2, failText: "boom"}, WithEmbedConcurrency(2))
	require.NoError(t, err)
	id, err := store.InsertChunk(ctx, Entity{Content: "abc", Filepath: "x"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	entities := []Entity{{Content: "a"}, {Content: "boom"}, {Content: "c"}}
	err = store.BulkInsertChunks(ctx, entities, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
	assert.Equal(t, 0, drv.begun, "no slice is written when embedding fails")

	require.NoError(t, store.BulkInsertChunks(ctx, []Entity{{Content: "a"}, {Content: "bb"}}, 0))
	assert.Equal(t, []string{"abc", "a", "bb"}, drv.contents())
}

func TestTextAPI_ProviderDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store, err := New(newFakeDriver(driver.Embedded), &stubProvider{dim: 2, width: 3})
	require.NoError(t, err)
	_, err = store.InsertChunk(ctx, Entity{Content: "a"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	failing := providerFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, &embedding.DimensionError{Expected: 2, Actual: 5}
	})
	store, err = New(newFakeDriver(driver.Embedded), failing, WithEmbeddingDim(2))
	require.NoError(t, err)
	_, err = store.SearchSimilar(ctx, "a", 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.ErrorIs(t, err, embedding.ErrDimension)
	var dimErr *DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 5, dimErr.Actual)
}

type providerFunc func(ctx context.Context, text string) ([]float32, error)

func (f providerFunc) Dimension() int { return 0 }
func (f providerFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
func (f providerFunc) Close() error { return nil }
