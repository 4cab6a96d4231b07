// Package bvh implements the destructible terrain index: a depth-bounded
// quadtree whose leaves are either solid or empty. Terrain starts fully solid
// and is carved away with circle and point cuts; collision and rendering code
// query the solid leaves around a location.
//
// A Tree is not safe for concurrent use. Callers owning a tree serialise
// cuts and queries themselves.
package bvh

import (
	"fmt"
	"iter"

	"github.com/roketz/terrain/internal/core/systems/physics"
)

// MaxDepthLimit caps the subdivision depth accepted by New. Deeper trees
// would need up to 4^depth leaves.
const MaxDepthLimit = 16

// Tree is a quadtree over the rectangle [0,0]..[width,height].
type Tree struct {
	bounds       AABB
	root         Node
	maxDepth     int
	deepPointCut bool
}

// New creates a fully solid tree covering width × height world units.
// maxDepth is the destruction resolution: nodes at that depth are emptied
// whole instead of being subdivided.
func New(width, height uint32, maxDepth int, opts ...Option) (*Tree, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: bounds %dx%d must not be empty", ErrInvalidConfiguration, width, height)
	}
	if maxDepth < 1 || maxDepth > MaxDepthLimit {
		return nil, fmt.Errorf("%w: max depth %d outside [1, %d]", ErrInvalidConfiguration, maxDepth, MaxDepthLimit)
	}

	t := &Tree{
		bounds:   NewAABB(0, 0, float32(width), float32(height)),
		root:     SolidNode(),
		maxDepth: maxDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tree) Bounds() AABB  { return t.bounds }
func (t *Tree) MaxDepth() int { return t.maxDepth }

// Root returns the root node. The returned value shares its children with
// the tree and must be treated as read-only.
func (t *Tree) Root() Node { return t.root }

// CutCircle empties every part of the terrain touched by the circle, down to
// the tree's resolution. Circles that miss the tree leave it untouched.
func (t *Tree) CutCircle(location physics.Vec2, radius float32) {
	if !t.bounds.IntersectsCircle(location, radius) {
		return
	}
	t.cutCircle(&t.root, t.bounds, location, radius, 0)
}

func (t *Tree) cutCircle(n *Node, bounds AABB, location physics.Vec2, radius float32, depth int) {
	switch n.Kind {
	case Empty:
		return

	case Solid:
		if depth >= t.maxDepth || bounds.InsideCircle(location, radius) {
			n.setEmpty()
			return
		}

		childBounds := bounds.Subdivide()
		children := n.split()
		for i := range children {
			if childBounds[i].IntersectsCircle(location, radius) {
				t.cutCircle(&children[i], childBounds[i], location, radius, depth+1)
			}
		}

	case Internal:
		if n.allChildrenEmpty() {
			n.setEmpty()
			return
		}

		childBounds := bounds.Subdivide()
		for i := range n.children {
			if childBounds[i].InsideCircle(location, radius) || childBounds[i].IntersectsCircle(location, radius) {
				t.cutCircle(&n.children[i], childBounds[i], location, radius, depth+1)
			}
		}
	}

	if n.allChildrenEmpty() {
		n.setEmpty()
	}
}

// CutPoint marks the point as destroyed. A solid node containing the point is
// subdivided one level per call unless the tree was built with
// WithDeepPointCut. Points outside the tree are ignored.
func (t *Tree) CutPoint(location physics.Vec2) {
	if !t.bounds.ContainsPoint(location) {
		return
	}
	t.cutPoint(&t.root, t.bounds, location, 0)
}

func (t *Tree) cutPoint(n *Node, bounds AABB, location physics.Vec2, depth int) {
	switch n.Kind {
	case Empty:
		return

	case Solid:
		if depth >= t.maxDepth || !bounds.ContainsPoint(location) {
			n.setEmpty()
			return
		}

		children := n.split()
		if !t.deepPointCut {
			return
		}
		childBounds := bounds.Subdivide()
		for i := range children {
			if childBounds[i].ContainsPoint(location) {
				t.cutPoint(&children[i], childBounds[i], location, depth+1)
			}
		}

	case Internal:
		if n.allChildrenEmpty() {
			n.setEmpty()
			return
		}

		childBounds := bounds.Subdivide()
		for i := range n.children {
			if childBounds[i].ContainsPoint(location) {
				t.cutPoint(&n.children[i], childBounds[i], location, depth+1)
			}
		}
	}

	if n.allChildrenEmpty() {
		n.setEmpty()
	}
}

// GetNodes returns every solid leaf with its bounds, depth first.
func (t *Tree) GetNodes() []Leaf {
	var leaves []Leaf
	for leaf := range t.Leaves() {
		leaves = append(leaves, leaf)
	}
	return leaves
}

// Leaves lazily yields the same sequence as GetNodes. The tree must not be
// cut while the sequence is being consumed.
func (t *Tree) Leaves() iter.Seq[Leaf] {
	return func(yield func(Leaf) bool) {
		t.root.collect(t.bounds, 0, t.maxDepth, yield)
	}
}

// GetNearbyNodes returns the solid leaves whose bounds touch the circle.
func (t *Tree) GetNearbyNodes(location physics.Vec2, radius float32) []Leaf {
	return t.AppendNearbyNodes(nil, location, radius)
}

// AppendNearbyNodes is GetNearbyNodes appending into dst, so per-frame
// callers can reuse a buffer.
func (t *Tree) AppendNearbyNodes(dst []Leaf, location physics.Vec2, radius float32) []Leaf {
	return t.root.collectNearby(t.bounds, location, radius, 0, t.maxDepth, dst)
}

// Draw renders every leaf of the tree: empty regions red, solid regions green.
func (t *Tree) Draw(r Rasterizer) {
	t.root.draw(r, t.bounds, 0, t.maxDepth)
}

// Stats counts nodes per kind.
func (t *Tree) Stats() Stats {
	var s Stats
	t.root.count(0, &s)
	return s
}
