package bvh

import (
	"github.com/roketz/terrain/internal/core/systems/physics"
)

// pushEpsilon keeps PushCircleOut from dividing by zero when the circle
// center sits exactly on the box.
const pushEpsilon = 0.0001

// AABB is an axis-aligned bounding box. Min is the top-left corner and Max the
// bottom-right one; Min.X <= Max.X and Min.Y <= Max.Y always hold.
type AABB struct {
	Min physics.Vec2
	Max physics.Vec2
}

// NewAABB builds a box from its corners.
func NewAABB(minX, minY, maxX, maxY float32) AABB {
	return AABB{Min: physics.V2(minX, minY), Max: physics.V2(maxX, maxY)}
}

func (b AABB) Width() float32  { return b.Max.X - b.Min.X }
func (b AABB) Height() float32 { return b.Max.Y - b.Min.Y }

func (b AABB) Center() physics.Vec2 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Translate returns a copy of b shifted by delta.
func (b AABB) Translate(delta physics.Vec2) AABB {
	return AABB{Min: b.Min.Add(delta), Max: b.Max.Add(delta)}
}

// IntersectsBounds reports whether b and other overlap. Boxes sharing an edge
// count as intersecting.
func (b AABB) IntersectsBounds(other AABB) bool {
	return !(b.Max.X < other.Min.X ||
		b.Min.X > other.Max.X ||
		b.Max.Y < other.Min.Y ||
		b.Min.Y > other.Max.Y)
}

// closest returns the point of b nearest to p.
func (b AABB) closest(p physics.Vec2) physics.Vec2 {
	return p.Clamp(b.Min, b.Max)
}

// IntersectsCircle reports whether the circle touches b.
func (b AABB) IntersectsCircle(center physics.Vec2, radius float32) bool {
	return center.DistanceSquared(b.closest(center)) <= radius*radius
}

// Contains reports whether other lies fully inside b.
func (b AABB) Contains(other AABB) bool {
	return b.Min.X <= other.Min.X &&
		b.Max.X >= other.Max.X &&
		b.Min.Y <= other.Min.Y &&
		b.Max.Y >= other.Max.Y
}

// ContainsPoint is inclusive on all four edges.
func (b AABB) ContainsPoint(p physics.Vec2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// ContainsCircle reports whether the whole circle lies within b.
func (b AABB) ContainsCircle(center physics.Vec2, radius float32) bool {
	return center.X-radius >= b.Min.X &&
		center.X+radius <= b.Max.X &&
		center.Y-radius >= b.Min.Y &&
		center.Y+radius <= b.Max.Y
}

// InsideCircle reports whether b is fully covered by the circle, i.e. all
// four corners are within radius of center. Cuts use it to decide that a
// node can be emptied without subdividing.
func (b AABB) InsideCircle(center physics.Vec2, radius float32) bool {
	r2 := radius * radius
	for _, corner := range b.Corners() {
		if corner.DistanceSquared(center) > r2 {
			return false
		}
	}
	return true
}

// Corners returns min, (min.x, max.y), (max.x, min.y) and max.
func (b AABB) Corners() [4]physics.Vec2 {
	return [4]physics.Vec2{
		b.Min,
		physics.V2(b.Min.X, b.Max.Y),
		physics.V2(b.Max.X, b.Min.Y),
		b.Max,
	}
}

// PushCircleOut returns the circle center moved so the circle no longer
// overlaps b. The bool is false, and center returned unchanged, when there is
// no overlap.
func (b AABB) PushCircleOut(center physics.Vec2, radius float32) (physics.Vec2, bool) {
	delta := center.Sub(b.closest(center))
	distSq := delta.LengthSquared()
	if distSq >= radius*radius {
		return center, false
	}

	dist := delta.Length()
	if dist < pushEpsilon {
		dist = pushEpsilon
	}
	push := delta.Scale((radius - dist) / dist)
	return center.Add(push), true
}

// Subdivide splits b at its center into four quadrants:
//
//	0 | 1
//	--+--
//	2 | 3
//
// with quadrant 0 holding Min and quadrant 3 holding Max. Node children use
// the same ordering.
func (b AABB) Subdivide() [4]AABB {
	c := b.Center()
	return [4]AABB{
		{Min: b.Min, Max: c},
		{Min: physics.V2(c.X, b.Min.Y), Max: physics.V2(b.Max.X, c.Y)},
		{Min: physics.V2(b.Min.X, c.Y), Max: physics.V2(c.X, b.Max.Y)},
		{Min: c, Max: b.Max},
	}
}
