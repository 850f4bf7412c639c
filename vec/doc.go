// Package vec implements a SQLite virtual table for k-nearest-neighbor search
// with MATCH semantics. Each virtual table reads a rowid-keyed shadow table
// (_vec_<table>) holding encoded embeddings and an info row carrying the
// table's dimension, metric and a change version. Triggers on the shadow bump
// the version; the in-memory index cache is rebuilt when it changes.
//
// Features:
//   - WHERE embedding MATCH ? AND k = ? using an encoded embedding BLOB,
//     a JSON array or a CSV float list
//   - distance result column ordered ascending and a hidden k column
//   - Pluggable index (exact brute force, cover tree, auto)
//
// A table is bound to a *sql.DB through Attach so that cursors can read the
// shadow from a pooled connection.
package vec
