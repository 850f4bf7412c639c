// Package engine opens the databases behind a chunk store: SQLite through
// the modernc.org/sqlite driver (with the ":memory:" sentinel mapped to a
// private shared-cache database) and PostgreSQL through lib/pq or pgx. It
// also registers the vec_distance_* SQL scalar functions.
package engine
