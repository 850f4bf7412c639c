package chunkstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/vecadmin"
)

// postgresBackend stores the embedding in a pgvector column of the chunk row
// and relies on an HNSW cosine index.
type postgresBackend struct {
	dim int
	sql *statements
}

func newPostgresBackend(dim int) *postgresBackend {
	return &postgresBackend{
		dim: dim,
		sql: &statements{
			insert:          `INSERT INTO chunks (content, filepath, metadata, embedding) VALUES ($1, $2, $3::jsonb, $4) RETURNING id`,
			insertReturnsID: true,
			search: `SELECT id, content, filepath, metadata::text, embedding <=> $1::vector AS distance
FROM chunks
ORDER BY embedding <=> $1::vector
LIMIT $2`,
			searchInFile: `SELECT id, content, filepath, metadata::text, embedding <=> $1::vector AS distance
FROM chunks
WHERE filepath = $2
ORDER BY distance, id
LIMIT $3`,
			get:          `SELECT id, content, filepath, metadata::text, embedding::text FROM chunks WHERE id = $1`,
			update:       `UPDATE chunks SET content = $1, filepath = $2, metadata = $3::jsonb, embedding = $4 WHERE id = $5`,
			deleteByID:   `DELETE FROM chunks WHERE id = $1`,
			deleteByPath: `DELETE FROM chunks WHERE filepath = $1`,
			count:        `SELECT COUNT(*) FROM chunks`,
		},
	}
}

func (b *postgresBackend) initSchema(ctx context.Context, drv driver.Driver) error {
	if b.dim <= 0 {
		return &SchemaError{Op: "validate", Err: fmt.Errorf("invalid embedding dimension %d", b.dim)}
	}
	if err := drv.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return newSchemaError("enable vector extension", err)
	}
	table := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
    id BIGSERIAL PRIMARY KEY,
    content TEXT NOT NULL,
    filepath TEXT NOT NULL,
    metadata JSONB,
    embedding vector(%d) NOT NULL
)`, b.dim)
	if err := drv.Exec(ctx, table); err != nil {
		return newSchemaError("create table", err)
	}
	var columnType string
	found, err := queryRow(ctx, drv, `SELECT format_type(atttypid, atttypmod)
FROM pg_attribute
WHERE attrelid = 'chunks'::regclass AND attname = 'embedding' AND NOT attisdropped`, nil, &columnType)
	if err != nil {
		return newSchemaError("inspect table", err)
	}
	if expect := fmt.Sprintf("vector(%d)", b.dim); !found || columnType != expect {
		return &SchemaError{Op: "verify table", Err: fmt.Errorf("chunks.embedding is %q, store expects %s", columnType, expect)}
	}
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS chunks_filepath_idx ON chunks (filepath)`,
	}
	if err := execAll(ctx, drv, indexes); err != nil {
		return newSchemaError("create index", err)
	}
	return nil
}

func (b *postgresBackend) encodeEmbedding(v []float32) (interface{}, error) {
	return pgvector.NewVector(v), nil
}

func (b *postgresBackend) decodeEmbedding(raw []byte) ([]float32, error) {
	var v pgvector.Vector
	if err := v.Scan(raw); err != nil {
		return nil, fmt.Errorf("chunkstore: decode vector: %w", err)
	}
	return v.Slice(), nil
}

func (b *postgresBackend) statements() *statements { return b.sql }

func (b *postgresBackend) searchArgs(q interface{}, k int) []interface{} {
	return []interface{}{q, k}
}

func (b *postgresBackend) searchInFileArgs(q interface{}, path string, k int) []interface{} {
	return []interface{}{q, path, k}
}

// verify reports the row count; the vector lives in the row, so the index
// cannot diverge from the table.
func (b *postgresBackend) verify(ctx context.Context, drv driver.Driver) (*vecadmin.Report, error) {
	var n int
	if _, err := queryRow(ctx, drv, b.sql.count, nil, &n); err != nil {
		return nil, err
	}
	return &vecadmin.Report{Records: n, Indexed: n}, nil
}

func (b *postgresBackend) reindex(ctx context.Context, drv driver.Driver) (int, error) {
	if err := drv.Exec(ctx, `REINDEX INDEX chunks_embedding_idx`); err != nil {
		return 0, err
	}
	var n int
	if _, err := queryRow(ctx, drv, b.sql.count, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (b *postgresBackend) close() {}
