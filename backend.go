package chunkstore

import (
	"context"

	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/vecadmin"
)

const (
	chunkTable = "chunks"
	vecTable   = "vec_index"
)

// backend is the dialect strategy chosen once from the driver kind.
type backend interface {
	// initSchema creates or verifies the chunk table and the vector index.
	initSchema(ctx context.Context, drv driver.Driver) error
	// encodeEmbedding returns the bind value of an embedding.
	encodeEmbedding(v []float32) (interface{}, error)
	// decodeEmbedding parses a stored embedding column.
	decodeEmbedding(raw []byte) ([]float32, error)
	statements() *statements
	// searchArgs binds the query vector q and k to statements().search.
	searchArgs(q interface{}, k int) []interface{}
	// searchInFileArgs binds q, path and k to statements().searchInFile.
	searchInFileArgs(q interface{}, path string, k int) []interface{}
	verify(ctx context.Context, drv driver.Driver) (*vecadmin.Report, error)
	reindex(ctx context.Context, drv driver.Driver) (int, error)
	close()
}

// statements holds the dialect SQL. Column lists are shared: insert and update
// bind content, filepath, metadata and embedding (update adds id last); search
// statements select id, content, filepath, metadata and distance; get selects
// id, content, filepath, metadata and embedding.
type statements struct {
	insert          string
	insertReturnsID bool
	search          string
	searchInFile    string
	get             string
	update          string
	deleteByID      string
	deleteByPath    string
	count           string
}

// queryRow runs query and scans its first row into dest; found is false when
// the result is empty.
func queryRow(ctx context.Context, exec driver.Executor, query string, args []interface{}, dest ...interface{}) (found bool, err error) {
	stmt, err := exec.Prepare(ctx, query)
	if err != nil {
		return false, err
	}
	defer stmt.Close()
	rows, err := stmt.All(ctx, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return false, err
		}
		found = true
	}
	return found, rows.Err()
}

func execAll(ctx context.Context, exec driver.Executor, stmts []string) error {
	for _, stmt := range stmts {
		if err := exec.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
