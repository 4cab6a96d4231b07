package physics

import "math"

// Vec2 is a 2D vector in world units. Terrain space has its origin at the
// top-left corner with y growing downwards.
type Vec2 struct{ X, Y float32 }

// V2 is a shorthand constructor.
func V2(x, y float32) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float32) Vec2   { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) LengthSquared() float32 { return v.X*v.X + v.Y*v.Y }

func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

// DistanceSquared returns the squared euclidean distance between v and o.
func (v Vec2) DistanceSquared(o Vec2) float32 { return v.Sub(o).LengthSquared() }

// Distance returns the euclidean distance between v and o.
func (v Vec2) Distance(o Vec2) float32 { return v.Sub(o).Length() }

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Clamp clamps each component of v into [lo, hi].
func (v Vec2) Clamp(lo, hi Vec2) Vec2 {
	return Vec2{Clamp(v.X, lo.X, hi.X), Clamp(v.Y, lo.Y, hi.Y)}
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
