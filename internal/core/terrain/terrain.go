// Package terrain owns a destructible map: the quadtree used for collisions
// plus the texture kept in sync with it.
package terrain

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/google/uuid"

	"github.com/roketz/terrain/internal/config"
	"github.com/roketz/terrain/internal/core/bvh"
	"github.com/roketz/terrain/internal/core/events/bus"
	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/systems/physics"
)

// carveThreshold is the highest channel value of a mask pixel that starts
// out destroyed (0.1 on a 0..1 scale).
const carveThreshold = 25

// crashRadius is the explosion radius of a body hitting the ground too fast.
const crashRadius = 20

var transparent = color.NRGBA{}

// Options configures New.
type Options struct {
	Depth                   int
	DeepPointCut            bool
	NearbyNodesRadius       float32
	NearbyNodesRadiusBullet float32
	MaxCrashVelocity        float32
	OverlayBVH              bool

	Logger log.Log
	Bus    bus.EventBus
}

// OptionsFromConfig maps the physics and debug sections onto Options.
func OptionsFromConfig(c *config.Config, logger log.Log, eventBus bus.EventBus) Options {
	return Options{
		Depth:                   c.Physics.BVHDepth,
		DeepPointCut:            c.Physics.DeepPointCut,
		NearbyNodesRadius:       c.Physics.Collisions.NearbyNodesRadius,
		NearbyNodesRadiusBullet: c.Physics.Collisions.NearbyNodesRadiusBullet,
		MaxCrashVelocity:        c.Physics.MaxCrashVelocity,
		OverlayBVH:              c.Debug.OverlayBVH,
		Logger:                  logger,
		Bus:                     eventBus,
	}
}

// TextureSink receives the texture whenever it changed since the last Update.
type TextureSink interface {
	UploadTexture(img *image.NRGBA)
}

// Terrain is not safe for concurrent use.
type Terrain struct {
	name   string
	width  uint32
	height uint32
	tree   *bvh.Tree

	killDistanceX uint32
	killDistanceY uint32

	texture      *image.NRGBA
	dirty        bool
	destructions []Destruction

	opts   Options
	logger log.Log
	bus    bus.EventBus
}

// New decodes data and builds the terrain. Pixels of the mask that are
// (nearly) black are carved out of the tree and cleared in the texture.
func New(ctx context.Context, data Data, opts Options) (*Terrain, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Provide()
	}
	logger = logger.With(log.String("map", data.Name))

	texture, mask, err := Decode(ctx, data)
	if err != nil {
		return nil, err
	}

	width, height := checkTextureSizes(logger, texture, mask)
	logger.Debug("creating terrain", log.Uint32("width", width), log.Uint32("height", height))

	var treeOpts []bvh.Option
	if opts.DeepPointCut {
		treeOpts = append(treeOpts, bvh.WithDeepPointCut())
	}
	tree, err := bvh.New(width, height, opts.Depth, treeOpts...)
	if err != nil {
		return nil, fmt.Errorf("create terrain tree: %w", err)
	}

	start := time.Now()
	carved := 0
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			p := mask.NRGBAAt(x, y)
			if p.R <= carveThreshold && p.G <= carveThreshold && p.B <= carveThreshold {
				tree.CutPoint(physics.V2(float32(x), float32(y)))
				texture.SetNRGBA(x, y, transparent)
				carved++
			}
		}
	}

	t := &Terrain{
		name:          data.Name,
		width:         width,
		height:        height,
		tree:          tree,
		killDistanceX: width/2 + uint32(max(data.KillDistance, 0)),
		killDistanceY: height/2 + uint32(max(data.KillDistance, 0)),
		texture:       texture,
		dirty:         true,
		opts:          opts,
		logger:        logger,
		bus:           opts.Bus,
	}

	stats := tree.Stats()
	instrumentSolidLeaves(t.name, stats.Solid)
	logger.Debug("terrain created",
		log.Int("carved_pixels", carved),
		log.Int("solid_leaves", stats.Solid),
		log.Duration("took", time.Since(start)),
	)
	return t, nil
}

// checkTextureSizes returns the smaller of the two image sizes.
func checkTextureSizes(logger log.Log, texture, mask *image.NRGBA) (uint32, uint32) {
	tw, th := texture.Rect.Dx(), texture.Rect.Dy()
	mw, mh := mask.Rect.Dx(), mask.Rect.Dy()

	if tw != mw {
		logger.Warn("terrain texture width does not match terrain map width, continuing with the smaller size",
			log.Int("texture_width", tw), log.Int("map_width", mw))
	}
	if th != mh {
		logger.Warn("terrain texture height does not match terrain map height, continuing with the smaller size",
			log.Int("texture_height", th), log.Int("map_height", mh))
	}
	return uint32(min(tw, mw)), uint32(min(th, mh))
}

func (t *Terrain) Name() string    { return t.name }
func (t *Terrain) Width() uint32   { return t.width }
func (t *Terrain) Height() uint32  { return t.height }
func (t *Terrain) Tree() *bvh.Tree { return t.tree }

// Texture returns the live texture. Callers must not modify it.
func (t *Terrain) Texture() *image.NRGBA { return t.texture }

// Destructions returns the explosions applied so far, oldest first.
func (t *Terrain) Destructions() []Destruction {
	out := make([]Destruction, len(t.destructions))
	copy(out, t.destructions)
	return out
}

// KillDistance returns the half extents of the kill zone around the terrain
// center.
func (t *Terrain) KillDistance() (x, y uint32) { return t.killDistanceX, t.killDistanceY }

// Destruct blows a circular hole into the terrain.
func (t *Terrain) Destruct(x, y, radius uint32) Destruction {
	start := time.Now()
	t.tree.CutCircle(physics.V2(float32(x), float32(y)), float32(radius))
	took := time.Since(start)

	t.clearCircle(int64(x), int64(y), int64(radius))
	t.dirty = true

	d := Destruction{
		ID:     uuid.NewString(),
		X:      x,
		Y:      y,
		Radius: radius,
		At:     time.Now(),
	}
	t.destructions = append(t.destructions, d)

	instrumentDestruction(t.name, took, t.tree.Stats().Solid)
	t.logger.Debug("terrain destructed",
		log.Uint32("x", x), log.Uint32("y", y), log.Uint32("radius", radius), log.Duration("took", took))

	if t.bus != nil {
		if err := t.bus.Publish(bus.NewEvent(EventDestructed, t.name, d)); err != nil {
			t.logger.Warn("destruction handlers failed", log.Error(err))
		}
	}
	return d
}

// clearCircle makes every texture pixel within radius of (cx, cy) transparent.
func (t *Terrain) clearCircle(cx, cy, radius int64) {
	minX, maxX := max(cx-radius, 0), min(cx+radius, int64(t.width)-1)
	minY, maxY := max(cy-radius, 0), min(cy+radius, int64(t.height)-1)
	r2 := radius * radius

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				t.texture.SetNRGBA(int(x), int(y), transparent)
			}
		}
	}
}

// DestructPoint cuts a single point out of the terrain.
func (t *Terrain) DestructPoint(p physics.Vec2) {
	start := time.Now()
	t.tree.CutPoint(p)
	instrumentPointCut(t.name, time.Since(start))

	if p.X >= 0 && p.Y >= 0 && p.X < float32(t.width) && p.Y < float32(t.height) {
		t.texture.SetNRGBA(int(p.X), int(p.Y), transparent)
	}
	t.dirty = true
}

// Update hands the texture to sink if it changed and reports whether it did.
func (t *Terrain) Update(sink TextureSink) bool {
	if !t.dirty {
		return false
	}
	t.dirty = false
	sink.UploadTexture(t.texture)
	return true
}

// OutOfBounds reports whether pos left the kill zone centered on the terrain.
func (t *Terrain) OutOfBounds(pos physics.Vec2) bool {
	cx, cy := float32(t.width)/2, float32(t.height)/2
	kx, ky := float32(t.killDistanceX), float32(t.killDistanceY)
	return pos.X < cx-kx || pos.X > cx+kx || pos.Y < cy-ky || pos.Y > cy+ky
}

// Canvas is what Draw renders onto.
type Canvas interface {
	bvh.Rasterizer
	DrawImage(img image.Image, at physics.Vec2)
	StrokeCircle(center physics.Vec2, radius, thickness float32, c color.NRGBA)
}

var destructionStroke = color.NRGBA{B: 255, A: 64}

// Draw renders the texture and, with the BVH overlay enabled, the tree and
// every past explosion.
func (t *Terrain) Draw(c Canvas) {
	c.DrawImage(t.texture, physics.Vec2{})
	if !t.opts.OverlayBVH {
		return
	}

	t.tree.Draw(c)
	for _, d := range t.destructions {
		c.StrokeCircle(physics.V2(float32(d.X), float32(d.Y)), float32(d.Radius), 0.5, destructionStroke)
	}
}

// SetOverlay toggles the debug overlay drawn by Draw.
func (t *Terrain) SetOverlay(enabled bool) { t.opts.OverlayBVH = enabled }
