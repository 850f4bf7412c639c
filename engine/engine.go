package engine

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// MemoryDSN is the sentinel path selecting a private in-memory database.
const MemoryDSN = ":memory:"

// DefaultBusyTimeoutMs is applied to every SQLite connection.
const DefaultBusyTimeoutMs = 5000

// SQLiteDSN expands a path into a driver DSN. The in-memory sentinel becomes
// a uniquely named shared-cache database visible to every pooled connection.
// It cannot host vec tables: cursors open pooled connections mid-statement
// and shared-cache connections serialize on one lock (see TempPath).
// File paths get a busy timeout and WAL journaling.
func SQLiteDSN(path string) string {
	if path == "" || path == MemoryDSN {
		return "file:chunkstore-" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=read_uncommitted(1)"
	}
	if strings.Contains(path, "?") {
		return path
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(wal)")
	return path + "?" + q.Encode()
}

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite". For a private
// in-memory database, pass ":memory:".
func Open(path string) (*sql.DB, error) { return sql.Open("sqlite", SQLiteDSN(path)) }

// TempPath creates a private directory holding a fresh database file and
// returns the file path together with a function removing the directory.
// Embedded stores opened on the in-memory sentinel live there.
func TempPath() (string, func() error, error) {
	dir, err := os.MkdirTemp("", "chunkstore-")
	if err != nil {
		return "", nil, fmt.Errorf("engine: create temp dir: %w", err)
	}
	return filepath.Join(dir, "chunks.db"), func() error { return os.RemoveAll(dir) }, nil
}
