package driver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/chunkstore/engine"
	"github.com/viant/chunkstore/vec"
)

// SQL implements Driver on top of database/sql.
type SQL struct {
	db      *sql.DB
	kind    Kind
	onClose []func() error
}

// New wraps an open database.
func New(db *sql.DB, kind Kind) *SQL {
	return &SQL{db: db, kind: kind}
}

// OpenSQLite opens the embedded backend at path with the vec module and
// vector functions registered. "" and ":memory:" select a private database
// in a temp file that is removed on Close.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	engine.RegisterVectorFunctions()
	var cleanup func() error
	if path == "" || path == engine.MemoryDSN {
		var err error
		if path, cleanup, err = engine.TempPath(); err != nil {
			return nil, err
		}
	}
	db, err := engine.Open(path)
	if err == nil {
		err = vec.Register(db)
		if err != nil {
			_ = db.Close()
			err = fmt.Errorf("driver: register vec module: %w", err)
		}
	} else {
		err = fmt.Errorf("driver: open sqlite %q: %w", path, err)
	}
	if err != nil {
		if cleanup != nil {
			_ = cleanup()
		}
		return nil, err
	}
	ret := New(db, Embedded)
	if cleanup != nil {
		ret.OnClose(cleanup)
	}
	return ret, nil
}

// OpenPostgres opens the relational backend with the named database/sql
// driver ("postgres" for lib/pq, "pgx" for pgx) and verifies connectivity.
func OpenPostgres(ctx context.Context, driverName, dsn string) (*SQL, error) {
	db, err := engine.OpenPostgres(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("driver: ping postgres: %w", err)
	}
	return New(db, Relational), nil
}

// DB returns the underlying database.
func (s *SQL) DB() *sql.DB { return s.db }

// Kind returns the backend variant.
func (s *SQL) Kind() Kind { return s.kind }

// OnClose registers fn to run after the database is closed.
func (s *SQL) OnClose(fn func() error) { s.onClose = append(s.onClose, fn) }

// Exec runs query without arguments.
func (s *SQL) Exec(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Prepare compiles query on the pool.
func (s *SQL) Prepare(ctx context.Context, query string) (Statement, error) {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &statement{stmt: stmt}, nil
}

// Transaction runs fn inside BEGIN/COMMIT, rolling back on any failure.
func (s *SQL) Transaction(ctx context.Context, fn func(tx Executor) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&txExecutor{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return nil
}

// Close closes the database and then runs the OnClose hooks; the first
// error is returned.
func (s *SQL) Close() error {
	err := s.db.Close()
	for _, fn := range s.onClose {
		if hookErr := fn(); err == nil {
			err = hookErr
		}
	}
	s.onClose = nil
	return err
}

type txExecutor struct {
	tx *sql.Tx
}

func (t *txExecutor) Exec(ctx context.Context, query string) error {
	_, err := t.tx.ExecContext(ctx, query)
	return err
}

func (t *txExecutor) Prepare(ctx context.Context, query string) (Statement, error) {
	stmt, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &statement{stmt: stmt}, nil
}

type statement struct {
	stmt *sql.Stmt
}

func (s *statement) Run(ctx context.Context, args ...interface{}) (Result, error) {
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return Result{}, err
	}
	var ret Result
	if id, err := res.LastInsertId(); err == nil {
		ret.LastInsertID = id
		ret.HasLastInsertID = true
	}
	if n, err := res.RowsAffected(); err == nil {
		ret.RowsAffected = n
	}
	return ret, nil
}

func (s *statement) All(ctx context.Context, args ...interface{}) (Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *statement) Close() error { return s.stmt.Close() }
