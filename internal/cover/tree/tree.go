// Package tree implements a cover tree over rowid-keyed float32 vectors.
//
// A tree is filled with Insert and then sealed; a sealed tree is immutable and
// safe for concurrent Nearest calls.
package tree

import (
	"errors"
	"math"

	"github.com/viant/vec/search"
)

// Bound selects the lower-bound radius used when pruning subtrees.
type Bound int

const (
	// BoundPerNode uses the subtree radius computed at Seal (tighter pruning).
	BoundPerNode Bound = iota
	// BoundLevel uses the geometric radius implied by the node level.
	BoundLevel
)

const defaultBase = 1.3

// ErrSealed is returned by Insert after Seal.
var ErrSealed = errors.New("tree: insert into sealed tree")

type point struct {
	id   int64
	vec  []float32
	norm float32
}

type node struct {
	point    *point
	level    int32
	scale    float32 // base^level
	radius   float32 // max distance from point to any descendant
	children []*node
}

// Tree is a cover tree keyed by rowid.
type Tree struct {
	base   float32
	bound  Bound
	dist   distanceFunc
	root   *node
	size   int
	sealed bool
}

// New creates an empty tree. A base <= 1 selects the default expansion base.
func New(base float32, metric Metric, bound Bound) *Tree {
	if base <= 1 {
		base = defaultBase
	}
	return &Tree{base: base, bound: bound, dist: metric.distance()}
}

// Len returns the number of inserted vectors.
func (t *Tree) Len() int { return t.size }

func (t *Tree) scale(level int32) float32 {
	return float32(math.Pow(float64(t.base), float64(level)))
}

// Insert adds vec under id. vec is retained, not copied.
func (t *Tree) Insert(id int64, vec []float32) error {
	if t.sealed {
		return ErrSealed
	}
	p := &point{id: id, vec: vec, norm: magnitude(vec)}
	t.size++
	if t.root == nil {
		t.root = &node{point: p, scale: 1}
		return nil
	}
	n, level := t.root, int32(0)
	for {
		s := t.scale(level)
		if t.dist(p, n.point) >= s {
			level++
			if level > n.level {
				t.root = &node{point: p, level: level, scale: t.scale(level), children: []*node{t.root}}
				return nil
			}
			continue
		}
		var next *node
		for _, c := range n.children {
			if t.dist(p, c.point) < s {
				next = c
				break
			}
		}
		if next == nil {
			n.children = append(n.children, &node{point: p, level: level - 1, scale: t.scale(level - 1)})
			return nil
		}
		n, level = next, level-1
	}
}

// Seal computes subtree radii and freezes the tree.
func (t *Tree) Seal() {
	if t.sealed {
		return
	}
	if t.root != nil {
		t.computeRadius(t.root)
	}
	t.sealed = true
}

func (t *Tree) computeRadius(n *node) float32 {
	var r float32
	for _, c := range n.children {
		if d := t.dist(n.point, c.point) + t.computeRadius(c); d > r {
			r = d
		}
	}
	n.radius = r
	return r
}

func (t *Tree) boundRadius(n *node) float32 {
	if t.bound == BoundLevel {
		return n.scale * t.base / (t.base - 1)
	}
	return n.radius
}

func magnitude(v []float32) float32 { return search.Float32s(v).Magnitude() }
