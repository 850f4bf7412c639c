package chunkstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/engine"
)

// CHUNKSTORE_PG_DSN must point at a scratch database with pgvector installed;
// the chunks table is dropped.
func newPostgresStore(t *testing.T, driverName string, dim int) *Store {
	t.Helper()
	dsn := os.Getenv("CHUNKSTORE_PG_DSN")
	if dsn == "" {
		t.Skip("CHUNKSTORE_PG_DSN is not set")
	}
	ctx := context.Background()
	drv, err := driver.OpenPostgres(ctx, driverName, dsn)
	require.NoError(t, err)
	require.NoError(t, drv.Exec(ctx, `DROP TABLE IF EXISTS chunks`))
	store, err := New(drv, nil, WithEmbeddingDim(dim))
	require.NoError(t, err)
	require.NoError(t, store.InitSchema(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgres_Store(t *testing.T) {
	for _, driverName := range []string{engine.DriverPQ, engine.DriverPGX} {
		t.Run(driverName, func(t *testing.T) {
			ctx := context.Background()
			store := newPostgresStore(t, driverName, 2)
			require.NoError(t, store.InitSchema(ctx), "InitSchema must be idempotent")

			empty, err := store.SearchSimilarByEmbedding(ctx, []float32{1, 0}, 5)
			require.NoError(t, err)
			assert.Empty(t, empty)

			id, err := store.InsertChunkWithEmbedding(ctx, Chunk{
				Entity:    Entity{Content: "a", Filepath: "f1", Metadata: map[string]interface{}{"page": 1, "tags": []string{"x"}}},
				Embedding: []float32{1, 0},
			})
			require.NoError(t, err)
			assert.NotZero(t, id)
			require.NoError(t, store.BulkInsertChunksWithEmbedding(ctx, []Chunk{
				{Entity: Entity{Content: "b", Filepath: "f2"}, Embedding: []float32{0, 1}},
				{Entity: Entity{Content: "c", Filepath: "f2"}, Embedding: []float32{0.5, 0.5}},
			}, 1))

			results, err := store.SearchSimilarByEmbedding(ctx, []float32{1, 0}, 1)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, id, results[0].ID)
			assert.Equal(t, "a", results[0].Content)
			assert.Equal(t, map[string]interface{}{"page": float64(1), "tags": []interface{}{"x"}}, results[0].Metadata)
			assert.InDelta(t, 0, results[0].Distance, 1e-6)

			chunk, err := store.GetChunk(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, []float32{1, 0}, chunk.Embedding)

			inFile, err := store.SearchSimilarByEmbeddingInFile(ctx, []float32{1, 0}, "f2", 5)
			require.NoError(t, err)
			require.Len(t, inFile, 2)
			assert.Equal(t, "c", inFile[0].Content)

			deleted, err := store.DeleteByFilepath(ctx, "f2")
			require.NoError(t, err)
			assert.EqualValues(t, 2, deleted)
			report, err := store.Verify(ctx)
			require.NoError(t, err)
			assert.True(t, report.Consistent())
			assert.Equal(t, 1, report.Records)
		})
	}
}

func TestPostgres_SchemaConflict(t *testing.T) {
	newPostgresStore(t, engine.DriverPGX, 2)
	ctx := context.Background()
	dsn := os.Getenv("CHUNKSTORE_PG_DSN")
	drv, err := driver.OpenPostgres(ctx, engine.DriverPQ, dsn)
	require.NoError(t, err)
	conflicting, err := New(drv, nil, WithEmbeddingDim(3))
	require.NoError(t, err)
	defer conflicting.Close()

	err = conflicting.InitSchema(ctx)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, err.Error(), "vector(2)")
}
