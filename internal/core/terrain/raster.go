package terrain

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/roketz/terrain/internal/core/bvh"
	"github.com/roketz/terrain/internal/core/systems/physics"
)

// ImageCanvas draws onto an NRGBA image, scaling world units by Scale.
type ImageCanvas struct {
	Image *image.NRGBA
	Scale float32
}

// NewImageCanvas allocates a canvas big enough for a width × height terrain.
func NewImageCanvas(width, height uint32, scale float32) *ImageCanvas {
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(float64(float32(width) * scale)))
	h := int(math.Ceil(float64(float32(height) * scale)))
	return &ImageCanvas{
		Image: image.NewNRGBA(image.Rect(0, 0, w, h)),
		Scale: scale,
	}
}

func (c *ImageCanvas) rect(b bvh.AABB) image.Rectangle {
	return image.Rect(
		int(b.Min.X*c.Scale),
		int(b.Min.Y*c.Scale),
		int(math.Ceil(float64(b.Max.X*c.Scale))),
		int(math.Ceil(float64(b.Max.Y*c.Scale))),
	)
}

func (c *ImageCanvas) FillRect(b bvh.AABB, col color.NRGBA) {
	r := c.rect(b).Intersect(c.Image.Rect)
	draw.Draw(c.Image, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *ImageCanvas) StrokeRect(b bvh.AABB, thickness float32, col color.NRGBA) {
	r := c.rect(b)
	t := max(int(thickness*c.Scale), 1)
	src := image.NewUniform(col)

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+t, r.Min.X+t, r.Max.Y-t),
		image.Rect(r.Max.X-t, r.Min.Y+t, r.Max.X, r.Max.Y-t),
	}
	for _, e := range edges {
		draw.Draw(c.Image, e.Intersect(c.Image.Rect), src, image.Point{}, draw.Over)
	}
}

func (c *ImageCanvas) DrawImage(img image.Image, at physics.Vec2) {
	b := img.Bounds()
	if c.Scale == 1 {
		dst := b.Sub(b.Min).Add(image.Pt(int(at.X), int(at.Y)))
		draw.Draw(c.Image, dst.Intersect(c.Image.Rect), img, b.Min, draw.Over)
		return
	}

	// Nearest neighbour upscale.
	for y := c.Image.Rect.Min.Y; y < c.Image.Rect.Max.Y; y++ {
		sy := b.Min.Y + int(float32(y)/c.Scale-at.Y)
		if sy < b.Min.Y || sy >= b.Max.Y {
			continue
		}
		for x := c.Image.Rect.Min.X; x < c.Image.Rect.Max.X; x++ {
			sx := b.Min.X + int(float32(x)/c.Scale-at.X)
			if sx < b.Min.X || sx >= b.Max.X {
				continue
			}
			src := color.NRGBAModel.Convert(img.At(sx, sy)).(color.NRGBA)
			if src.A == 0 {
				continue
			}
			c.blend(x, y, src)
		}
	}
}

// StrokeCircle draws the outline of a circle by sampling its circumference.
func (c *ImageCanvas) StrokeCircle(center physics.Vec2, radius, thickness float32, col color.NRGBA) {
	r := radius * c.Scale
	if r <= 0 {
		return
	}
	cx, cy := center.X*c.Scale, center.Y*c.Scale
	half := max(thickness*c.Scale/2, 0.5)
	steps := max(int(2*math.Pi*float64(r)), 8)

	seen := make(map[image.Point]struct{}, steps)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		px, py := cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a))
		for dy := -half; dy <= half; dy++ {
			for dx := -half; dx <= half; dx++ {
				p := image.Pt(int(px+dx), int(py+dy))
				if _, ok := seen[p]; ok || !p.In(c.Image.Rect) {
					continue
				}
				seen[p] = struct{}{}
				c.blend(p.X, p.Y, col)
			}
		}
	}
}

func (c *ImageCanvas) blend(x, y int, src color.NRGBA) {
	r := image.Rect(x, y, x+1, y+1)
	draw.Draw(c.Image, r, image.NewUniform(src), image.Point{}, draw.Over)
}

var _ Canvas = (*ImageCanvas)(nil)
