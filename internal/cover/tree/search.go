package tree

import (
	"container/heap"
	"errors"
)

// ErrNotSealed is returned by Nearest before Seal.
var ErrNotSealed = errors.New("tree: search before seal")

// Neighbor is a search hit.
type Neighbor struct {
	ID       int64
	Distance float32
}

// results is a max-heap on distance holding the current best k.
type results []Neighbor

func (h results) Len() int            { return len(h) }
func (h results) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h results) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *results) Push(x interface{}) { *h = append(*h, x.(Neighbor)) }
func (h *results) Pop() interface{} {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

type candidate struct {
	node  *node
	lower float32
	dist  float32
}

// frontier is a min-heap on the subtree lower bound.
type frontier []candidate

func (q frontier) Len() int            { return len(q) }
func (q frontier) Less(i, j int) bool  { return q[i].lower < q[j].lower }
func (q frontier) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *frontier) Push(x interface{}) { *q = append(*q, x.(candidate)) }
func (q *frontier) Pop() interface{} {
	old := *q
	x := old[len(old)-1]
	*q = old[:len(old)-1]
	return x
}

// Nearest returns up to k neighbors of query ordered by ascending distance,
// expanding subtrees best-first by their lower bound.
func (t *Tree) Nearest(query []float32, k int) ([]Neighbor, error) {
	if !t.sealed {
		return nil, ErrNotSealed
	}
	if t.root == nil || k <= 0 {
		return nil, nil
	}
	q := &point{vec: query}
	q.norm = magnitude(query)

	best := make(results, 0, k)
	open := &frontier{}
	d := t.dist(q, t.root.point)
	heap.Push(open, candidate{node: t.root, lower: d - t.boundRadius(t.root), dist: d})
	for open.Len() > 0 {
		c := heap.Pop(open).(candidate)
		full := best.Len() == k
		if full && c.lower >= best[0].Distance {
			break
		}
		switch {
		case !full:
			heap.Push(&best, Neighbor{ID: c.node.point.id, Distance: c.dist})
		case c.dist < best[0].Distance:
			best[0] = Neighbor{ID: c.node.point.id, Distance: c.dist}
			heap.Fix(&best, 0)
		}
		for _, child := range c.node.children {
			cd := t.dist(q, child.point)
			lower := cd - t.boundRadius(child)
			if best.Len() == k && lower >= best[0].Distance {
				continue
			}
			heap.Push(open, candidate{node: child, lower: lower, dist: cd})
		}
	}
	out := make([]Neighbor, best.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&best).(Neighbor)
	}
	return out, nil
}
