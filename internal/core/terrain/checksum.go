package terrain

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/roketz/terrain/internal/core/bvh"
	"github.com/roketz/terrain/pkg/sequence"
)

// Checksum hashes the solid leaves of the tree. Two terrains that went
// through the same cuts have the same checksum.
func (t *Terrain) Checksum() uint64 {
	return TreeChecksum(t.tree)
}

// TreeChecksum hashes the bounds of every solid leaf in traversal order.
func TreeChecksum(tree *bvh.Tree) uint64 {
	h := xxhash.New()
	var buf [16]byte
	for leaf := range tree.Leaves() {
		binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(leaf.Bounds.Min.X))
		binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(leaf.Bounds.Min.Y))
		binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(leaf.Bounds.Max.X))
		binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(leaf.Bounds.Max.Y))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Rect is a solid leaf in the wire format of Snapshot.
type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// Snapshot is the serialisable state of a terrain.
type Snapshot struct {
	Name         string        `json:"name"`
	Width        uint32        `json:"width"`
	Height       uint32        `json:"height"`
	Depth        int           `json:"depth"`
	Checksum     uint64        `json:"checksum"`
	Stats        bvh.Stats     `json:"stats"`
	SolidArea    float32       `json:"solid_area"`
	Solid        []Rect        `json:"solid"`
	Destructions []Destruction `json:"destructions"`
}

func (t *Terrain) Snapshot() Snapshot {
	leaves := sequence.FromSeq(t.tree.Leaves())
	return Snapshot{
		Name:         t.name,
		Width:        t.width,
		Height:       t.height,
		Depth:        t.tree.MaxDepth(),
		Checksum:     t.Checksum(),
		Stats:        t.tree.Stats(),
		SolidArea:    t.SolidArea(),
		Solid:        sequence.Map(leaves, leafRect).Collect(),
		Destructions: t.Destructions(),
	}
}

func leafRect(leaf bvh.Leaf) Rect {
	return Rect{
		X: leaf.Bounds.Min.X,
		Y: leaf.Bounds.Min.Y,
		W: leaf.Bounds.Width(),
		H: leaf.Bounds.Height(),
	}
}

// SolidArea sums the area of every solid leaf.
func (t *Terrain) SolidArea() float32 {
	return sequence.Fold(sequence.FromSeq(t.tree.Leaves()), float32(0), func(area float32, leaf bvh.Leaf) float32 {
		return area + leaf.Bounds.Width()*leaf.Bounds.Height()
	})
}
