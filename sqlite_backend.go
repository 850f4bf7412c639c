package chunkstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/index"
	"github.com/viant/chunkstore/vec"
	"github.com/viant/chunkstore/vecadmin"
	"github.com/viant/chunkstore/vecsync"
	"github.com/viant/chunkstore/vector"
)

// sqliteBackend stores chunks in SQLite and mirrors their embeddings into the
// shadow of a vec virtual table through triggers.
type sqliteBackend struct {
	dim     int
	kind    index.Kind
	storeID string
	db      *sql.DB // attached to storeID
	sql     *statements
}

func newSQLiteBackend(dim int, kind index.Kind) *sqliteBackend {
	return &sqliteBackend{
		dim:  dim,
		kind: kind,
		sql: &statements{
			insert: `INSERT INTO chunks (content, filepath, metadata, embedding) VALUES (?, ?, ?, ?)`,
			// q must stay the outer loop so that MATCH is pushed down to vec_index;
			// k is bound twice: once as the index neighbor count, once as LIMIT.
			search: `WITH q AS (SELECT ? AS embedding)
SELECT c.id, c.content, c.filepath, c.metadata, v.distance
FROM q
CROSS JOIN vec_index v
CROSS JOIN chunks c ON c.id = v.rowid
WHERE v.embedding MATCH q.embedding
  AND v.k = ?
ORDER BY v.distance
LIMIT ?`,
			searchInFile: `SELECT id, content, filepath, metadata, vec_distance_cosine(embedding, ?) AS distance
FROM chunks
WHERE filepath = ?
ORDER BY distance, id
LIMIT ?`,
			get:          `SELECT id, content, filepath, metadata, embedding FROM chunks WHERE id = ?`,
			update:       `UPDATE chunks SET content = ?, filepath = ?, metadata = ?, embedding = ? WHERE id = ?`,
			deleteByID:   `DELETE FROM chunks WHERE id = ?`,
			deleteByPath: `DELETE FROM chunks WHERE filepath = ?`,
			count:        `SELECT COUNT(*) FROM chunks`,
		},
	}
}

func (b *sqliteBackend) binding() vecsync.Binding {
	return vecsync.Binding{Table: chunkTable, Key: "id", Column: "embedding", Shadow: vec.ShadowTable(vecTable)}
}

func (b *sqliteBackend) initSchema(ctx context.Context, drv driver.Driver) error {
	if b.dim <= 0 {
		return &SchemaError{Op: "validate", Err: fmt.Errorf("invalid embedding dimension %d", b.dim)}
	}
	holder, ok := drv.(interface{ DB() *sql.DB })
	if !ok {
		return &SchemaError{Op: "validate", Err: fmt.Errorf("embedded backend requires a database/sql driver, got %T", drv)}
	}
	tables := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL,
    filepath TEXT NOT NULL,
    metadata TEXT,
    embedding BLOB NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS chunks_filepath_idx ON chunks (filepath)`,
	}
	if err := execAll(ctx, drv, append(tables, vec.SchemaDDL(vecTable)...)); err != nil {
		return newSchemaError("create tables", err)
	}
	storeID, err := b.resolveStoreID(ctx, drv)
	if err != nil {
		return err
	}
	if b.db == nil {
		b.storeID, b.db = storeID, holder.DB()
		vec.Attach(storeID, b.db)
	}

	spec := vec.Spec{Dim: b.dim, Metric: vector.MetricCosine, Index: b.kind, StoreID: storeID}
	if err := drv.Exec(ctx, vec.CreateTableDDL(vecTable, spec)); err != nil {
		return newSchemaError("create vector index", err)
	}
	if err := execAll(ctx, drv, vecsync.SQLiteIndexTriggers(b.binding())); err != nil {
		return newSchemaError("create triggers", err)
	}
	return nil
}

// resolveStoreID returns the store id recorded by an earlier initialization
// or records a new one. An index created with another dimension is a conflict.
func (b *sqliteBackend) resolveStoreID(ctx context.Context, drv driver.Driver) (string, error) {
	var ddl string
	found, err := queryRow(ctx, drv, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, []interface{}{vecTable}, &ddl)
	if err != nil {
		return "", newSchemaError("inspect vector index", err)
	}
	var existing vec.Spec
	if found {
		if existing, err = parseVecDDL(ddl); err != nil {
			return "", newSchemaError("inspect vector index", err)
		}
		if existing.Dim != b.dim {
			return "", &SchemaError{Op: "verify vector index", Err: fmt.Errorf("%s has dimension %d, store expects %d", vecTable, existing.Dim, b.dim)}
		}
	}

	var storeID, metric string
	var dim int
	var version int64
	found, err = queryRow(ctx, drv, vec.InfoSelectSQL(vecTable), nil, &storeID, &dim, &metric, &version)
	if err != nil {
		return "", newSchemaError("inspect vector index", err)
	}
	if found {
		if dim != b.dim {
			return "", &SchemaError{Op: "verify vector index", Err: fmt.Errorf("%s has dimension %d, store expects %d", vec.InfoTable(vecTable), dim, b.dim)}
		}
		if existing.StoreID != "" && existing.StoreID != storeID {
			return "", &SchemaError{Op: "verify vector index", Err: fmt.Errorf("%s is bound to store %q, info records %q", vecTable, existing.StoreID, storeID)}
		}
		return storeID, nil
	}

	storeID = existing.StoreID
	if storeID == "" {
		storeID = uuid.NewString()
	}
	stmt, err := drv.Prepare(ctx, vec.InfoInsertSQL(vecTable))
	if err != nil {
		return "", newSchemaError("record vector index", err)
	}
	defer stmt.Close()
	if _, err := stmt.Run(ctx, storeID, b.dim, string(vector.MetricCosine)); err != nil {
		return "", newSchemaError("record vector index", err)
	}
	return storeID, nil
}

// parseVecDDL extracts the module arguments of a CREATE VIRTUAL TABLE ... USING vec(...) statement.
func parseVecDDL(ddl string) (vec.Spec, error) {
	lower := strings.ToLower(ddl)
	start := strings.Index(lower, "using "+vec.ModuleName)
	if start == -1 {
		return vec.Spec{}, fmt.Errorf("%s is not a %s virtual table", vecTable, vec.ModuleName)
	}
	open := strings.Index(ddl[start:], "(")
	end := strings.LastIndex(ddl, ")")
	if open == -1 || end < start+open {
		return vec.Spec{}, fmt.Errorf("malformed %s definition: %s", vecTable, ddl)
	}
	return vec.ParseSpec(strings.Split(ddl[start+open+1:end], ","))
}

func (b *sqliteBackend) encodeEmbedding(v []float32) (interface{}, error) {
	return vector.EncodeEmbedding(v)
}

func (b *sqliteBackend) decodeEmbedding(raw []byte) ([]float32, error) {
	return vector.DecodeEmbedding(raw)
}

func (b *sqliteBackend) statements() *statements { return b.sql }

func (b *sqliteBackend) searchArgs(q interface{}, k int) []interface{} {
	return []interface{}{q, k, k}
}

func (b *sqliteBackend) searchInFileArgs(q interface{}, path string, k int) []interface{} {
	return []interface{}{q, path, k}
}

func (b *sqliteBackend) verify(ctx context.Context, drv driver.Driver) (*vecadmin.Report, error) {
	return vecadmin.Check(ctx, drv, b.binding(), b.dim)
}

func (b *sqliteBackend) reindex(ctx context.Context, drv driver.Driver) (int, error) {
	n, err := vecadmin.Rebuild(ctx, drv, b.binding())
	if err != nil {
		return 0, err
	}
	vec.InvalidateCache(b.storeID, vecTable)
	return n, nil
}

func (b *sqliteBackend) close() {
	if b.db != nil {
		vec.Detach(b.storeID, b.db)
		b.db = nil
	}
}
