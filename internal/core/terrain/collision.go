package terrain

import (
	"github.com/roketz/terrain/internal/core/bvh"
	"github.com/roketz/terrain/internal/core/systems/physics"
	"github.com/roketz/terrain/pkg/generic"
)

var leafBuffers = generic.NewSlicePool[bvh.Leaf](64)

// nearby runs fn over the solid leaves within radius of pos using a pooled
// buffer. fn returns false to stop early.
func (t *Terrain) nearby(pos physics.Vec2, radius float32, fn func(bvh.Leaf) bool) {
	buf := leafBuffers.Get()
	defer leafBuffers.Put(buf)

	*buf = t.tree.AppendNearbyNodes(*buf, pos, radius)
	for _, leaf := range *buf {
		if !fn(leaf) {
			return
		}
	}
}

// ResolveCircle pushes a circle of the given radius out of every solid leaf
// around pos and returns the corrected position. The bool reports whether any
// push happened.
func (t *Terrain) ResolveCircle(pos physics.Vec2, radius float32) (physics.Vec2, bool) {
	var total physics.Vec2
	hit := false

	t.nearby(pos, max(t.opts.NearbyNodesRadius, radius), func(leaf bvh.Leaf) bool {
		if pushed, ok := leaf.Bounds.PushCircleOut(pos, radius); ok {
			total = total.Add(pushed.Sub(pos))
			hit = true
		}
		return true
	})
	return pos.Add(total), hit
}

// CollideProjectile reports whether a projectile at pos hits solid terrain.
// Projectiles with a positive radius explode on impact and destruct the
// terrain around pos; a zero radius is treated as a point.
func (t *Terrain) CollideProjectile(pos physics.Vec2, radius float32) bool {
	hit := false
	t.nearby(pos, max(t.opts.NearbyNodesRadiusBullet, radius), func(leaf bvh.Leaf) bool {
		if radius > 0 {
			hit = leaf.Bounds.IntersectsCircle(pos, radius)
		} else {
			hit = leaf.Bounds.ContainsPoint(pos)
		}
		return !hit
	})

	if hit && radius > 0 {
		t.Destruct(toPixel(pos.X), toPixel(pos.Y), uint32(radius))
	}
	return hit
}

// Contact is the outcome of CollideBody.
type Contact struct {
	Position physics.Vec2
	Velocity physics.Vec2
	Hit      bool
	// Crashed is set when the body hit the terrain faster than the configured
	// crash velocity; the terrain around it was destructed.
	Crashed bool
}

// CollideBody resolves a moving round body against the terrain. Overlapping
// leaves push the body away from their centers and stop it.
func (t *Terrain) CollideBody(pos, velocity physics.Vec2, radius float32) Contact {
	c := Contact{Position: pos, Velocity: velocity}

	t.nearby(pos, max(t.opts.NearbyNodesRadius, radius), func(leaf bvh.Leaf) bool {
		if !leaf.Bounds.IntersectsCircle(c.Position, radius) {
			return true
		}
		center := leaf.Bounds.Center()
		distance := c.Position.Distance(center)
		if distance >= radius {
			return true
		}

		normal := c.Position.Sub(center).Normalize()
		c.Position = c.Position.Add(normal.Scale(radius - distance))
		c.Hit = true

		if c.Velocity.Length() > t.opts.MaxCrashVelocity {
			c.Crashed = true
		}
		c.Velocity = physics.Vec2{}
		return !c.Crashed
	})

	if c.Crashed {
		t.Destruct(toPixel(c.Position.X), toPixel(c.Position.Y), crashRadius)
	}
	return c
}

// toPixel truncates a world coordinate to a pixel index, saturating at zero.
func toPixel(v float32) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(v)
}
