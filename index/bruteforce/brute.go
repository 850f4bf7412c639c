package bruteforce

import (
	"fmt"
	"math"
	"sort"

	"github.com/viant/chunkstore/vector"
)

// Index is an exact brute-force vector index.
type Index struct {
	metric vector.Metric
	ids    []int64
	vecs   [][]float32
	dim    int
	mags   []float64
}

// New creates an index ranking by the supplied metric (cosine when empty).
func New(metric vector.Metric) *Index {
	if metric == "" {
		metric = vector.MetricCosine
	}
	return &Index{metric: metric}
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Build loads ids and vectors and precomputes magnitudes.
func (i *Index) Build(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if i.metric == "" {
		i.metric = vector.MetricCosine
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.mags, i.dim = nil, nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vectors[j]), dim)
		}
	}
	mags := make([]float64, len(vectors))
	for j := range vectors {
		mags[j] = magnitude(vectors[j])
	}
	i.ids = append([]int64(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	i.mags = mags
	return nil
}

// Query returns the k nearest ids ordered by ascending distance.
func (i *Index) Query(query []float32, k int) ([]int64, []float64, error) {
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	type scored struct {
		idx  int
		dist float64
	}
	qm := magnitude(query)
	scoreds := make([]scored, 0, len(i.vecs))
	for j := range i.vecs {
		var d float64
		switch i.metric {
		case vector.MetricL2:
			d = l2(query, i.vecs[j])
		default:
			d = 1
			if qm != 0 && i.mags[j] != 0 {
				d = 1 - dot(query, i.vecs[j])/(qm*i.mags[j])
			}
		}
		if math.IsNaN(d) {
			continue
		}
		scoreds = append(scoreds, scored{idx: j, dist: d})
	}
	sort.SliceStable(scoreds, func(a, b int) bool {
		if scoreds[a].dist == scoreds[b].dist {
			return i.ids[scoreds[a].idx] < i.ids[scoreds[b].idx]
		}
		return scoreds[a].dist < scoreds[b].dist
	})
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]int64, k)
	outDist := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outDist[n] = scoreds[n].dist
	}
	return outIDs, outDist, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }

func l2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return math.Sqrt(s)
}
