package driver

import "context"

// Kind identifies the backend variant behind a Driver.
type Kind string

const (
	// Embedded is SQLite with the vec virtual table.
	Embedded Kind = "embedded"
	// Relational is PostgreSQL with pgvector.
	Relational Kind = "relational"
)

// Result reports the outcome of a write statement.
type Result struct {
	LastInsertID    int64
	HasLastInsertID bool
	RowsAffected    int64
}

// Rows iterates a result set; *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// Statement is a prepared statement.
type Statement interface {
	// Run executes the statement for its side effects.
	Run(ctx context.Context, args ...interface{}) (Result, error)
	// All executes the statement and returns its rows.
	All(ctx context.Context, args ...interface{}) (Rows, error)
	// Close releases the statement.
	Close() error
}

// Executor runs statements either directly or inside a transaction.
type Executor interface {
	// Exec runs one or more statements without arguments.
	Exec(ctx context.Context, query string) error
	// Prepare compiles a statement.
	Prepare(ctx context.Context, query string) (Statement, error)
}

// Driver is a database handle of a given Kind.
type Driver interface {
	Executor
	Kind() Kind
	// Transaction runs fn between BEGIN and COMMIT; any error from fn or the
	// commit rolls the transaction back and is returned unchanged.
	Transaction(ctx context.Context, fn func(tx Executor) error) error
	Close() error
}
