package cover

import (
	"fmt"

	"github.com/viant/chunkstore/internal/cover/tree"
	"github.com/viant/chunkstore/vector"
)

// BoundStrategy selects the pruning radius used during search.
type BoundStrategy = tree.Bound

const (
	BoundPerNode = tree.BoundPerNode
	BoundLevel   = tree.BoundLevel
)

const defaultBase float32 = 1.3

// Option configures an Index.
type Option func(*Index)

// WithBase sets the cover-tree expansion base (must be > 1).
func WithBase(base float32) Option {
	return func(i *Index) {
		if base > 1 {
			i.base = base
		}
	}
}

// WithBoundStrategy selects the pruning bound.
func WithBoundStrategy(s BoundStrategy) Option {
	return func(i *Index) { i.bound = s }
}

// WithMetric selects the distance metric.
func WithMetric(m vector.Metric) Option {
	return func(i *Index) { i.metric = m }
}

// Index is a kNN index backed by a sealed cover tree keyed by rowid.
type Index struct {
	base   float32
	bound  BoundStrategy
	metric vector.Metric
	dim    int
	tree   *tree.Tree
}

// New creates an empty cover index.
func New(opts ...Option) *Index {
	ret := &Index{base: defaultBase, bound: BoundPerNode, metric: vector.MetricCosine}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (i *Index) treeMetric() tree.Metric {
	if i.metric == vector.MetricL2 {
		return tree.Euclidean
	}
	return tree.Cosine
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	if i.tree == nil {
		return 0
	}
	return i.tree.Len()
}

// Build replaces the index content with the given (id, vector) pairs.
func (i *Index) Build(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("cover: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	t := tree.New(i.base, i.treeMetric(), i.bound)
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for j, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("cover: inconsistent vector dims %d vs %d", len(v), dim)
		}
		if err := t.Insert(ids[j], v); err != nil {
			return err
		}
	}
	t.Seal()
	i.tree = t
	i.dim = dim
	return nil
}

// Query returns up to k ids ordered by ascending distance; k <= 0 returns all.
func (i *Index) Query(query []float32, k int) ([]int64, []float64, error) {
	if i.tree == nil || i.dim == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("cover: query dim %d != index dim %d", len(query), i.dim)
	}
	if k <= 0 || k > i.tree.Len() {
		k = i.tree.Len()
	}
	neighbors, err := i.tree.Nearest(query, k)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, len(neighbors))
	distances := make([]float64, len(neighbors))
	for j, n := range neighbors {
		ids[j] = n.ID
		distances[j] = float64(n.Distance)
	}
	return ids, distances, nil
}
