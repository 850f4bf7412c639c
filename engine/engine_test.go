package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestOpenInMemory verifies that the in-memory sentinel opens a database that
// is shared by every pooled connection.
func TestOpenInMemory(t *testing.T) {
	db, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxIdleConns(4)

	if _, err := db.Exec("CREATE TABLE t(x INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t(x) VALUES (1),(2),(3)"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	// Hold one connection so the next query is served by another one.
	conn, err := db.Conn(t.Context())
	if err != nil {
		t.Fatalf("Conn failed: %v", err)
	}
	defer conn.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n); err != nil {
		t.Fatalf("COUNT failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("COUNT = %d, want 3", n)
	}
}

func TestOpenInMemory_Isolated(t *testing.T) {
	a, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Open a failed: %v", err)
	}
	defer a.Close()
	b, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Open b failed: %v", err)
	}
	defer b.Close()
	if _, err := a.Exec("CREATE TABLE only_a(x INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := b.Exec("SELECT * FROM only_a"); err == nil {
		t.Fatalf("expected only_a to be invisible from another in-memory store")
	}
}

func TestSQLiteDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")
	dsn := SQLiteDSN(path)
	if !strings.HasPrefix(dsn, path+"?") || !strings.Contains(dsn, "journal_mode") {
		t.Fatalf("unexpected file dsn %q", dsn)
	}
	if got := SQLiteDSN(path + "?_pragma=foreign_keys(1)"); got != path+"?_pragma=foreign_keys(1)" {
		t.Fatalf("explicit query must be kept, got %q", got)
	}
	mem := SQLiteDSN(MemoryDSN)
	if !strings.Contains(mem, "mode=memory") || !strings.HasPrefix(mem, "file:") {
		t.Fatalf("unexpected memory dsn %q", mem)
	}
	if SQLiteDSN(MemoryDSN) == mem {
		t.Fatalf("memory dsn must be unique per call")
	}
}

func TestOpenPostgres_Validation(t *testing.T) {
	if _, err := OpenPostgres("mysql", "dsn"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if _, err := OpenPostgres("", ""); err == nil {
		t.Fatalf("expected missing dsn error")
	}
	db, err := OpenPostgres(DriverPGX, "postgres://localhost:1/none")
	if err != nil {
		t.Fatalf("OpenPostgres(pgx) failed: %v", err)
	}
	_ = db.Close()
}

func TestTempPath(t *testing.T) {
	path, cleanup, err := TempPath()
	if err != nil {
		t.Fatalf("TempPath failed: %v", err)
	}
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", path, err)
	}
	if _, err := db.Exec("CREATE TABLE t(x INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file at %s: %v", path, err)
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); !os.IsNotExist(err) {
		t.Fatalf("expected temp dir to be removed, stat err = %v", err)
	}
}
