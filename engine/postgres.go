package engine

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register "pgx" driver
	_ "github.com/lib/pq"              // register "postgres" driver
)

const (
	// DriverPQ selects github.com/lib/pq.
	DriverPQ = "postgres"
	// DriverPGX selects github.com/jackc/pgx/v5/stdlib.
	DriverPGX = "pgx"
)

// OpenPostgres opens a PostgreSQL database with the named database/sql driver
// ("postgres" or "pgx"; empty selects "postgres").
func OpenPostgres(driverName, dsn string) (*sql.DB, error) {
	switch driverName {
	case "":
		driverName = DriverPQ
	case DriverPQ, DriverPGX:
	default:
		return nil, fmt.Errorf("engine: unsupported postgres driver %q", driverName)
	}
	if dsn == "" {
		return nil, fmt.Errorf("engine: postgres dsn is required")
	}
	return sql.Open(driverName, dsn)
}
