package bvh

import (
	"image/color"

	"github.com/roketz/terrain/internal/core/systems/physics"
)

// NodeKind tells which of the three states a node is in.
type NodeKind uint8

const (
	// Solid nodes are fully covered by terrain.
	Solid NodeKind = iota
	// Empty nodes are fully clear.
	Empty
	// Internal nodes are split into four children.
	Internal
)

func (k NodeKind) String() string {
	switch k {
	case Solid:
		return "solid"
	case Empty:
		return "empty"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Node is one cell of the tree. A node never stores its own bounds; they are
// derived from the parent bounds while walking.
type Node struct {
	Kind     NodeKind
	children *[4]Node
}

// SolidNode and EmptyNode are leaf constructors.
func SolidNode() Node { return Node{Kind: Solid} }
func EmptyNode() Node { return Node{Kind: Empty} }

// InternalNode creates an internal node owning the given children, ordered
// like AABB.Subdivide.
func InternalNode(children [4]Node) Node {
	return Node{Kind: Internal, children: &children}
}

func (n Node) IsLeaf() bool { return n.Kind != Internal }

// Children returns the child array of an internal node.
func (n *Node) Children() (*[4]Node, bool) {
	if n.Kind != Internal || n.children == nil {
		return nil, false
	}
	return n.children, true
}

func (n *Node) setEmpty() { *n = Node{Kind: Empty} }

// split turns n into an internal node with four solid children.
func (n *Node) split() *[4]Node {
	*n = InternalNode([4]Node{SolidNode(), SolidNode(), SolidNode(), SolidNode()})
	return n.children
}

// allChildrenEmpty reports whether an internal node has only empty children.
func (n *Node) allChildrenEmpty() bool {
	children, ok := n.Children()
	if !ok {
		return false
	}
	for i := range children {
		if children[i].Kind != Empty {
			return false
		}
	}
	return true
}

// Leaf pairs a leaf node with the bounds it covers.
type Leaf struct {
	Node   Node
	Bounds AABB
}

func (n *Node) collect(bounds AABB, depth, maxDepth int, yield func(Leaf) bool) bool {
	if depth > maxDepth {
		return true
	}
	switch n.Kind {
	case Solid:
		return yield(Leaf{Node: SolidNode(), Bounds: bounds})
	case Internal:
		childBounds := bounds.Subdivide()
		for i := range n.children {
			if !n.children[i].collect(childBounds[i], depth+1, maxDepth, yield) {
				return false
			}
		}
	}
	return true
}

func (n *Node) collectNearby(
	bounds AABB,
	location physics.Vec2,
	radius float32,
	depth, maxDepth int,
	dst []Leaf,
) []Leaf {
	if depth > maxDepth {
		return dst
	}
	switch n.Kind {
	case Solid:
		if bounds.IntersectsCircle(location, radius) {
			dst = append(dst, Leaf{Node: SolidNode(), Bounds: bounds})
		}
	case Internal:
		childBounds := bounds.Subdivide()
		for i := range n.children {
			if childBounds[i].IntersectsCircle(location, radius) {
				dst = n.children[i].collectNearby(childBounds[i], location, radius, depth+1, maxDepth, dst)
			}
		}
	}
	return dst
}

// Rasterizer receives the debug drawing of a tree.
type Rasterizer interface {
	FillRect(bounds AABB, c color.NRGBA)
	StrokeRect(bounds AABB, thickness float32, c color.NRGBA)
}

const debugStroke = 0.2

var (
	EmptyStroke = color.NRGBA{R: 255, A: 255}
	EmptyFill   = color.NRGBA{R: 255, A: 50}
	SolidStroke = color.NRGBA{G: 255, A: 255}
	SolidFill   = color.NRGBA{G: 255, A: 50}
)

func (n *Node) draw(r Rasterizer, bounds AABB, depth, maxDepth int) {
	if depth > maxDepth {
		return
	}
	switch n.Kind {
	case Empty:
		r.StrokeRect(bounds, debugStroke, EmptyStroke)
		r.FillRect(bounds, EmptyFill)
	case Solid:
		r.StrokeRect(bounds, debugStroke, SolidStroke)
		r.FillRect(bounds, SolidFill)
	case Internal:
		childBounds := bounds.Subdivide()
		for i := range n.children {
			n.children[i].draw(r, childBounds[i], depth+1, maxDepth)
		}
	}
}

// count walks the subtree and accumulates node statistics.
func (n *Node) count(depth int, s *Stats) {
	if depth > s.Depth {
		s.Depth = depth
	}
	switch n.Kind {
	case Solid:
		s.Solid++
	case Empty:
		s.Empty++
	case Internal:
		s.Internal++
		for i := range n.children {
			n.children[i].count(depth+1, s)
		}
	}
}

// Stats summarises a tree's shape.
type Stats struct {
	Internal int `json:"internal"`
	Solid    int `json:"solid"`
	Empty    int `json:"empty"`
	// Depth is the deepest level holding a node; the root is level 0.
	Depth int `json:"depth"`
}
