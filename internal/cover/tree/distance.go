package tree

import "github.com/viant/vec/search"

// Metric selects the distance used between tree points.
type Metric string

const (
	Cosine    Metric = "cosine"
	Euclidean Metric = "euclidean"
)

type distanceFunc func(a, b *point) float32

func (m Metric) distance() distanceFunc {
	if m == Euclidean {
		return euclidean
	}
	return cosine
}

// cosine returns 1 - cosine similarity; a zero vector is at distance 1 from everything.
func cosine(a, b *point) float32 {
	if a.norm == 0 || b.norm == 0 {
		return 1
	}
	return search.Float32s(a.vec).CosineDistanceWithMagnitude(b.vec, a.norm, b.norm)
}

func euclidean(a, b *point) float32 {
	return search.Float32s(a.vec).EuclideanDistance(b.vec)
}
