package index

import (
	"fmt"
	"strings"
)

// Index defines an in-memory vector index over rowid-keyed embeddings.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length; vectors must share one dimension.
	Build(ids []int64, vectors [][]float32) error

	// Query runs a kNN search against the index with the provided query vector
	// and returns up to k matches as parallel slices of ids and distances,
	// ordered by ascending distance. k <= 0 returns every entry.
	Query(query []float32, k int) (ids []int64, distances []float64, err error)

	// Len returns the number of indexed vectors.
	Len() int
}

// Kind selects an Index implementation.
type Kind string

const (
	KindAuto  Kind = "auto"
	KindBrute Kind = "brute"
	KindCover Kind = "cover"
)

// ParseKind resolves an index kind name; empty means auto.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case "", KindAuto:
		return KindAuto, nil
	case KindBrute, "bruteforce":
		return KindBrute, nil
	case KindCover:
		return KindCover, nil
	}
	return "", fmt.Errorf("index: unsupported kind %q", name)
}
