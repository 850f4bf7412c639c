// Package driver defines the narrow database contract the chunk store is
// written against (exec, prepare, run, all, transaction, close) and a
// database/sql implementation for the embedded SQLite and the relational
// PostgreSQL backends.
package driver
