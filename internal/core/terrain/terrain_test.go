package terrain

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roketz/terrain/internal/config"
	"github.com/roketz/terrain/internal/core/bvh"
	"github.com/roketz/terrain/internal/core/events/bus"
	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/systems/physics"
)

var (
	ground = color.NRGBA{R: 120, G: 80, B: 40, A: 255}
	white  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black  = color.NRGBA{A: 255}
)

func encodePNG(t testing.TB, w, h int, fill func(x, y int) color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uniform(c color.NRGBA) func(x, y int) color.NRGBA {
	return func(int, int) color.NRGBA { return c }
}

func solidData(t testing.TB, name string, w, h int) Data {
	return Data{
		Name:    name,
		Texture: encodePNG(t, w, h, uniform(ground)),
		Map:     encodePNG(t, w, h, uniform(white)),
	}
}

func testOptions(depth int) Options {
	return Options{
		Depth:                   depth,
		NearbyNodesRadius:       20,
		NearbyNodesRadiusBullet: 10,
		MaxCrashVelocity:        60,
		Logger:                  log.NewNop(),
	}
}

func newTerrain(t testing.TB, data Data, opts Options) *Terrain {
	t.Helper()
	terrain, err := New(context.Background(), data, opts)
	require.NoError(t, err)
	return terrain
}

type recordingSink struct {
	uploads int
}

func (s *recordingSink) UploadTexture(*image.NRGBA) { s.uploads++ }

type recordingCanvas struct {
	images  int
	fills   int
	strokes int
	circles int
}

func (c *recordingCanvas) FillRect(bvh.AABB, color.NRGBA)            { c.fills++ }
func (c *recordingCanvas) StrokeRect(bvh.AABB, float32, color.NRGBA) { c.strokes++ }
func (c *recordingCanvas) DrawImage(image.Image, physics.Vec2)       { c.images++ }
func (c *recordingCanvas) StrokeCircle(physics.Vec2, float32, float32, color.NRGBA) {
	c.circles++
}

func TestNewSolidTerrain(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "solid", 100, 100), testOptions(5))

	assert.Equal(t, "solid", terrain.Name())
	assert.Equal(t, uint32(100), terrain.Width())
	assert.Equal(t, uint32(100), terrain.Height())
	assert.Equal(t, bvh.Stats{Solid: 1}, terrain.Tree().Stats())
	assert.Equal(t, ground, terrain.Texture().NRGBAAt(10, 10))
}

func TestNewCarvesBlackMaskPixels(t *testing.T) {
	data := Data{
		Name:    "carved",
		Texture: encodePNG(t, 64, 64, uniform(ground)),
		Map: encodePNG(t, 64, 64, func(x, y int) color.NRGBA {
			if x < 8 && y < 8 {
				return color.NRGBA{R: 20, G: 25, B: 10, A: 255}
			}
			return white
		}),
	}
	terrain := newTerrain(t, data, testOptions(6))

	assert.Equal(t, transparent, terrain.Texture().NRGBAAt(0, 0))
	assert.Equal(t, transparent, terrain.Texture().NRGBAAt(7, 7))
	assert.Equal(t, ground, terrain.Texture().NRGBAAt(8, 8))
	assert.Equal(t, ground, terrain.Texture().NRGBAAt(63, 63))

	assert.Greater(t, terrain.Tree().Stats().Internal, 0)
	assert.NotEmpty(t, terrain.Tree().GetNearbyNodes(physics.V2(60, 60), 1))
}

func TestNewDeepPointCutClearsFullyBlackMask(t *testing.T) {
	data := Data{
		Name:    "void",
		Texture: encodePNG(t, 16, 16, uniform(ground)),
		Map:     encodePNG(t, 16, 16, uniform(black)),
	}
	opts := testOptions(4)
	opts.DeepPointCut = true
	terrain := newTerrain(t, data, opts)

	assert.Empty(t, terrain.Tree().GetNodes())
	assert.Equal(t, bvh.Empty, terrain.Tree().Root().Kind)
}

func TestNewTextureSizeMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts := testOptions(4)
	opts.Logger = log.NewWithCore(core, log.LevelDebug)

	data := Data{
		Name:    "mismatch",
		Texture: encodePNG(t, 20, 10, uniform(ground)),
		Map:     encodePNG(t, 10, 20, uniform(white)),
	}
	terrain := newTerrain(t, data, opts)

	assert.Equal(t, uint32(10), terrain.Width())
	assert.Equal(t, uint32(10), terrain.Height())
	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("does not match").Len())
}

func TestNewErrors(t *testing.T) {
	_, err := New(context.Background(), Data{Name: "broken", Texture: []byte("nope"), Map: []byte("nope")}, testOptions(5))
	assert.ErrorIs(t, err, ErrDecodeImage)

	_, err = New(context.Background(), solidData(t, "too-deep", 10, 10), testOptions(bvh.MaxDepthLimit+1))
	assert.ErrorIs(t, err, bvh.ErrInvalidConfiguration)
}

func TestDestruct(t *testing.T) {
	eventBus := bus.New()
	var published []Destruction
	_, err := eventBus.Subscribe(EventDestructed, func(e bus.Event) error {
		published = append(published, e.Data().(Destruction))
		return nil
	})
	require.NoError(t, err)

	opts := testOptions(5)
	opts.Bus = eventBus
	terrain := newTerrain(t, solidData(t, "destruct", 100, 100), opts)
	before := testutil.ToFloat64(destructionsTotal.WithLabelValues("destruct"))

	d := terrain.Destruct(50, 50, 10)

	assert.Equal(t, uint32(50), d.X)
	assert.Equal(t, uint32(10), d.Radius)
	assert.NotEmpty(t, d.ID)
	assert.Empty(t, terrain.Tree().GetNearbyNodes(physics.V2(50, 50), 10))
	assert.NotEmpty(t, terrain.Tree().GetNearbyNodes(physics.V2(50, 50), 20))

	tex := terrain.Texture()
	assert.Equal(t, transparent, tex.NRGBAAt(50, 50))
	assert.Equal(t, transparent, tex.NRGBAAt(50, 60))
	assert.Equal(t, ground, tex.NRGBAAt(50, 61))
	assert.Equal(t, ground, tex.NRGBAAt(58, 58))

	require.Len(t, published, 1)
	assert.Equal(t, d, published[0])
	assert.Equal(t, []Destruction{d}, terrain.Destructions())
	assert.Equal(t, before+1, testutil.ToFloat64(destructionsTotal.WithLabelValues("destruct")))
	assert.Equal(t, float64(terrain.Tree().Stats().Solid), testutil.ToFloat64(solidLeaves.WithLabelValues("destruct")))
}

func TestDestructAtEdgeClampsPixels(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "edge", 32, 32), testOptions(4))

	assert.NotPanics(t, func() { terrain.Destruct(0, 31, 5) })
	assert.Equal(t, transparent, terrain.Texture().NRGBAAt(0, 31))
	assert.Equal(t, ground, terrain.Texture().NRGBAAt(31, 0))
}

func TestDestructPoint(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "point", 32, 32), testOptions(4))
	before := testutil.ToFloat64(pointCutsTotal.WithLabelValues("point"))

	terrain.DestructPoint(physics.V2(3, 3))
	terrain.DestructPoint(physics.V2(-3, 3))

	assert.Equal(t, transparent, terrain.Texture().NRGBAAt(3, 3))
	assert.Equal(t, bvh.Internal, terrain.Tree().Root().Kind)
	assert.Equal(t, before+2, testutil.ToFloat64(pointCutsTotal.WithLabelValues("point")))
}

func TestUpdateUploadsOnlyWhenDirty(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "update", 32, 32), testOptions(4))
	sink := &recordingSink{}

	assert.True(t, terrain.Update(sink))
	assert.False(t, terrain.Update(sink))

	terrain.Destruct(16, 16, 4)
	assert.True(t, terrain.Update(sink))
	assert.Equal(t, 2, sink.uploads)
}

func TestChecksum(t *testing.T) {
	a := newTerrain(t, solidData(t, "a", 100, 100), testOptions(5))
	b := newTerrain(t, solidData(t, "b", 100, 100), testOptions(5))
	assert.Equal(t, a.Checksum(), b.Checksum())

	a.Destruct(20, 20, 8)
	assert.NotEqual(t, a.Checksum(), b.Checksum())

	b.Destruct(20, 20, 8)
	assert.Equal(t, a.Checksum(), b.Checksum())
}

func TestSnapshot(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "snapshot", 100, 100), testOptions(5))
	assert.InDelta(t, 10000, terrain.SolidArea(), 1e-3)
	terrain.Destruct(0, 0, 30)

	s := terrain.Snapshot()
	assert.Equal(t, "snapshot", s.Name)
	assert.Equal(t, 5, s.Depth)
	assert.Equal(t, terrain.Checksum(), s.Checksum)
	assert.Equal(t, terrain.Tree().Stats(), s.Stats)
	assert.Len(t, s.Solid, len(terrain.Tree().GetNodes()))
	assert.Len(t, s.Destructions, 1)
	assert.Less(t, s.SolidArea, float32(9300))
	assert.Greater(t, s.SolidArea, float32(0))
}

func TestResolveCircle(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "resolve", 100, 100), testOptions(5))

	pos, hit := terrain.ResolveCircle(physics.V2(-2, 50), 3)
	assert.True(t, hit)
	assert.InDelta(t, -3, pos.X, 1e-4)
	assert.InDelta(t, 50, pos.Y, 1e-4)

	pos, hit = terrain.ResolveCircle(physics.V2(-10, 50), 3)
	assert.False(t, hit)
	assert.Equal(t, physics.V2(-10, 50), pos)
}

func TestCollideProjectile(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "projectile", 100, 100), testOptions(5))

	assert.True(t, terrain.CollideProjectile(physics.V2(50, 50), 0))
	assert.Empty(t, terrain.Destructions())

	assert.False(t, terrain.CollideProjectile(physics.V2(-50, -50), 0))

	assert.True(t, terrain.CollideProjectile(physics.V2(50, 50), 5))
	require.Len(t, terrain.Destructions(), 1)
	assert.Equal(t, uint32(5), terrain.Destructions()[0].Radius)
	assert.False(t, terrain.CollideProjectile(physics.V2(50, 50), 0))
}

func TestCollideBody(t *testing.T) {
	t.Run("slow body is pushed out", func(t *testing.T) {
		terrain := newTerrain(t, solidData(t, "body", 10, 10), testOptions(1))

		c := terrain.CollideBody(physics.V2(5, 8), physics.V2(0, 10), 4)
		assert.True(t, c.Hit)
		assert.False(t, c.Crashed)
		assert.InDelta(t, 5, c.Position.X, 1e-4)
		assert.InDelta(t, 9, c.Position.Y, 1e-4)
		assert.Equal(t, physics.Vec2{}, c.Velocity)
		assert.Empty(t, terrain.Destructions())
	})

	t.Run("fast body crashes", func(t *testing.T) {
		terrain := newTerrain(t, solidData(t, "crash", 10, 10), testOptions(1))

		c := terrain.CollideBody(physics.V2(5, 8), physics.V2(0, 100), 4)
		assert.True(t, c.Hit)
		assert.True(t, c.Crashed)
		require.Len(t, terrain.Destructions(), 1)
		assert.Equal(t, uint32(crashRadius), terrain.Destructions()[0].Radius)
		assert.Equal(t, bvh.Stats{Empty: 1}, terrain.Tree().Stats())
	})

	t.Run("body away from terrain", func(t *testing.T) {
		terrain := newTerrain(t, solidData(t, "miss", 10, 10), testOptions(1))

		c := terrain.CollideBody(physics.V2(50, 50), physics.V2(3, 4), 2)
		assert.False(t, c.Hit)
		assert.Equal(t, physics.V2(3, 4), c.Velocity)
	})
}

func TestOutOfBounds(t *testing.T) {
	data := solidData(t, "bounds", 100, 100)
	data.KillDistance = 50
	terrain := newTerrain(t, data, testOptions(5))

	kx, ky := terrain.KillDistance()
	assert.Equal(t, uint32(100), kx)
	assert.Equal(t, uint32(100), ky)

	assert.False(t, terrain.OutOfBounds(physics.V2(50, 50)))
	assert.False(t, terrain.OutOfBounds(physics.V2(149, 50)))
	assert.True(t, terrain.OutOfBounds(physics.V2(-51, 50)))
	assert.True(t, terrain.OutOfBounds(physics.V2(50, 151)))
}

func TestDraw(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "draw", 100, 100), testOptions(5))
	terrain.Destruct(0, 0, 30)

	plain := &recordingCanvas{}
	terrain.Draw(plain)
	assert.Equal(t, 1, plain.images)
	assert.Zero(t, plain.fills)

	terrain.SetOverlay(true)
	overlay := &recordingCanvas{}
	terrain.Draw(overlay)

	stats := terrain.Tree().Stats()
	assert.Equal(t, 1, overlay.images)
	assert.Equal(t, stats.Solid+stats.Empty, overlay.fills)
	assert.Equal(t, 1, overlay.circles)
}

func TestImageCanvas(t *testing.T) {
	terrain := newTerrain(t, solidData(t, "canvas", 16, 16), testOptions(2))
	terrain.Destruct(0, 0, 4)
	terrain.SetOverlay(true)

	canvas := NewImageCanvas(16, 16, 2)
	assert.Equal(t, image.Rect(0, 0, 32, 32), canvas.Image.Rect)

	terrain.Draw(canvas)
	assert.Equal(t, uint8(0), canvas.Image.NRGBAAt(0, 0).G, "destroyed corner has no ground")
	assert.NotZero(t, canvas.Image.NRGBAAt(31, 31).A)
}

func TestOptionsFromConfig(t *testing.T) {
	c := config.Default()
	c.Debug.OverlayBVH = true
	opts := OptionsFromConfig(&c, log.NewNop(), nil)

	assert.Equal(t, c.Physics.BVHDepth, opts.Depth)
	assert.Equal(t, c.Physics.Collisions.NearbyNodesRadius, opts.NearbyNodesRadius)
	assert.Equal(t, c.Physics.Collisions.NearbyNodesRadiusBullet, opts.NearbyNodesRadiusBullet)
	assert.Equal(t, c.Physics.MaxCrashVelocity, opts.MaxCrashVelocity)
	assert.True(t, opts.OverlayBVH)
}

const manifestYAML = `
name: hills
texture: hills.png
map: hills_map.png
kill_distance: 40
spawns:
  - {x: 10, y: 20}
`

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(manifestYAML))
	require.NoError(t, err)
	assert.Equal(t, "hills", m.Name)
	assert.Equal(t, int64(40), m.KillDistance)
	assert.Equal(t, []Spawn{{X: 10, Y: 20}}, m.Spawns)

	_, err = LoadManifest(strings.NewReader("name: hills\nmap: m.png\n"))
	assert.ErrorIs(t, err, ErrInvalidMap)

	_, err = LoadManifest(strings.NewReader("name: [\n"))
	assert.ErrorIs(t, err, ErrInvalidMap)
}

func TestLoadMap(t *testing.T) {
	dir := t.TempDir()
	texture := encodePNG(t, 8, 8, uniform(ground))
	mask := encodePNG(t, 8, 8, uniform(white))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hills.png"), texture, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hills_map.png"), mask, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map.yaml"), []byte(manifestYAML), 0o600))

	m, data, err := LoadMap(filepath.Join(dir, "map.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "hills", m.Name)
	assert.Equal(t, "hills", data.Name)
	assert.Equal(t, texture, data.Texture)
	assert.Equal(t, mask, data.Map)
	assert.Equal(t, int64(40), data.KillDistance)

	_, _, err = LoadMap(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
