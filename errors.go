package chunkstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrDimensionMismatch is matched by every *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("chunkstore: embedding dimension mismatch")
	// ErrClosed is matched by every *ClosedStoreError.
	ErrClosed = errors.New("chunkstore: store is closed")
	// ErrNotFound is returned when a chunk id does not exist.
	ErrNotFound = errors.New("chunkstore: chunk not found")
	// ErrNoProvider is returned by text operations of a store without an embedding provider.
	ErrNoProvider = errors.New("chunkstore: embedding provider is not configured")

	errMissingID = errors.New("chunkstore: insert did not report the new chunk id")
)

// DimensionMismatchError reports an embedding whose length differs from the
// store dimension. It is returned before any I/O takes place.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	cause    error
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("chunkstore: embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

func (e *DimensionMismatchError) Unwrap() error { return e.cause }

// SchemaError reports a failed schema creation or verification.
type SchemaError struct {
	// Op names the failing step.
	Op string
	// Code is the SQLSTATE of a relational backend error, if any.
	Code string
	Err  error
}

func (e *SchemaError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("chunkstore: schema: %s (sqlstate %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("chunkstore: schema: %s: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

func newSchemaError(op string, err error) *SchemaError {
	return &SchemaError{Op: op, Code: sqlState(err), Err: err}
}

// TransactionError reports a failed bulk insert slice. The slice was rolled
// back; slices before it are committed and slices after it were not attempted.
type TransactionError struct {
	// Slice is the zero-based index of the failing slice.
	Slice int
	// Offset is the position of the slice's first chunk in the input.
	Offset int
	// Size is the number of chunks in the slice.
	Size int
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("chunkstore: batch slice %d (chunks %d..%d) rolled back: %v", e.Slice, e.Offset, e.Offset+e.Size-1, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// ClosedStoreError reports an operation attempted after Close.
type ClosedStoreError struct {
	Op string
}

func (e *ClosedStoreError) Error() string {
	return fmt.Sprintf("chunkstore: %s: store is closed", e.Op)
}

// Is reports whether target is ErrClosed.
func (e *ClosedStoreError) Is(target error) bool { return target == ErrClosed }

// sqlState extracts the SQLSTATE code of a lib/pq or pgx error.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
