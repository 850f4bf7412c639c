package vector

import (
	"fmt"
	"strings"

	"github.com/viant/vec/search"
)

// Metric names a distance function. Smaller distances mean more similar.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// ParseMetric resolves a metric name; empty defaults to cosine.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cos", "cosine":
		return MetricCosine, nil
	case "l2", "euclidean":
		return MetricL2, nil
	}
	return "", fmt.Errorf("vector: unsupported distance metric %q", name)
}

// Distance computes the metric distance between two vectors of equal length.
func (m Metric) Distance(a, b []float32) (float64, error) {
	switch m {
	case MetricL2:
		return L2Distance(a, b)
	default:
		return CosineDistance(a, b)
	}
}

// CosineDistance returns 1 - cosine similarity. A zero-magnitude vector is at
// distance 1 from everything.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: cosine distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: cosine distance on empty vectors")
	}
	va := search.Float32s(a)
	ma := va.Magnitude()
	mb := search.Float32s(b).Magnitude()
	if ma == 0 || mb == 0 {
		return 1, nil
	}
	return float64(va.CosineDistanceWithMagnitude(b, ma, mb)), nil
}

// CosineSimilarity computes the cosine similarity between two vectors. It
// returns an error if the vectors have different lengths or if either vector
// has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: cosine similarity dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: cosine similarity on empty vectors")
	}
	ma := search.Float32s(a).Magnitude()
	mb := search.Float32s(b).Magnitude()
	if ma == 0 || mb == 0 {
		return 0, fmt.Errorf("vector: cosine similarity with zero-magnitude vector")
	}
	return 1 - float64(search.Float32s(a).CosineDistanceWithMagnitude(b, ma, mb)), nil
}

// L2Distance computes the Euclidean (L2) distance between two vectors. It
// returns an error if the vectors have different lengths.
func L2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: L2 distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return float64(search.Float32s(a).EuclideanDistance(b)), nil
}

// CheckDimension reports whether every vector has exactly dim components and
// returns the position of the first offender otherwise.
func CheckDimension(dim int, vectors ...[]float32) (int, bool) {
	for i, v := range vectors {
		if len(v) != dim {
			return i, false
		}
	}
	return -1, true
}
