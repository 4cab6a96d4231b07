package terrain

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roketz/terrain/pkg/concurrent"
	"github.com/roketz/terrain/pkg/sequence"
)

// Data is the raw material of a terrain: the visible texture and the
// destruction mask, both PNG encoded. Mask pixels that are (nearly) black
// start out destroyed.
type Data struct {
	Name         string
	Texture      []byte
	Map          []byte
	KillDistance int64
}

// Spawn is a player spawn point in terrain pixels.
type Spawn struct {
	X uint32 `yaml:"x" json:"x"`
	Y uint32 `yaml:"y" json:"y"`
}

// Manifest describes a map on disk. Texture and Map paths are relative to the
// manifest file.
type Manifest struct {
	Name         string  `yaml:"name"`
	Texture      string  `yaml:"texture"`
	Map          string  `yaml:"map"`
	KillDistance int64   `yaml:"kill_distance"`
	Spawns       []Spawn `yaml:"spawns"`
}

// LoadManifest decodes a YAML map manifest.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %v", ErrInvalidMap, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidMap)
	case m.Texture == "":
		return fmt.Errorf("%w: texture is required", ErrInvalidMap)
	case m.Map == "":
		return fmt.Errorf("%w: map is required", ErrInvalidMap)
	case m.KillDistance < 0:
		return fmt.Errorf("%w: kill_distance must not be negative", ErrInvalidMap)
	}
	return nil
}

// LoadMap reads the manifest at path together with the images it references.
func LoadMap(path string) (*Manifest, Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Data{}, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := LoadManifest(f)
	if err != nil {
		return nil, Data{}, err
	}

	dir := filepath.Dir(path)
	texture, err := os.ReadFile(filepath.Join(dir, m.Texture))
	if err != nil {
		return nil, Data{}, fmt.Errorf("read texture: %w", err)
	}
	mask, err := os.ReadFile(filepath.Join(dir, m.Map))
	if err != nil {
		return nil, Data{}, fmt.Errorf("read map: %w", err)
	}

	return m, Data{
		Name:         m.Name,
		Texture:      texture,
		Map:          mask,
		KillDistance: m.KillDistance,
	}, nil
}

type blob struct {
	name string
	data []byte
}

// Decode decodes the texture and the mask concurrently.
func Decode(ctx context.Context, data Data) (texture, mask *image.NRGBA, err error) {
	blobs := sequence.From([]blob{
		{name: "texture", data: data.Texture},
		{name: "map", data: data.Map},
	})

	images, err := concurrent.ParallelMap(ctx, blobs, 2, func(ctx context.Context, b blob) (*image.NRGBA, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := png.Decode(bytes.NewReader(b.data))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecodeImage, b.name, err)
		}
		return toNRGBA(img), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return images[0], images[1], nil
}

// toNRGBA returns img as a zero-origin NRGBA image, converting when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
