// Package index defines a minimal abstraction for in-memory vector indexes
// that are rebuilt from the vec shadow table and queried for kNN.
// Implementations in this module include an exact brute-force scan and a
// cover-tree index.
package index
