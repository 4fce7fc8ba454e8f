package light

import "voxlight.ai/internal/sim/world/logic/mathx"

const (
	// MaxLight is the brightest value either channel can hold.
	MaxLight uint8 = 15

	// ChunkSize is the horizontal edge length of a chunk column.
	ChunkSize = 16
)

type Vec3i struct {
	X, Y, Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i {
	return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

type ChunkPos struct {
	CX int
	CZ int
}

// ChunkOf returns the chunk column that owns p.
func ChunkOf(p Vec3i) ChunkPos {
	return ChunkPos{CX: mathx.FloorDiv(p.X, ChunkSize), CZ: mathx.FloorDiv(p.Z, ChunkSize)}
}

// Origin is the lowest-coordinate voxel of the chunk at y=0.
func (c ChunkPos) Origin() Vec3i {
	return Vec3i{X: c.CX * ChunkSize, Z: c.CZ * ChunkSize}
}

// faces are the six face-adjacent offsets.
var faces = [6]Vec3i{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Neighbors returns the six face-adjacent voxels of v.
func (v Vec3i) Neighbors() [6]Vec3i {
	var out [6]Vec3i
	for i, d := range faces {
		out[i] = v.Add(d)
	}
	return out
}

// Dimension is the voxel store the engine reads and writes through. The engine
// owns no voxel storage of its own.
type Dimension interface {
	Block(p Vec3i) uint16
	SetBlock(p Vec3i, b uint16)

	SkyLight(p Vec3i) uint8
	SetSkyLight(p Vec3i, v uint8)
	BlockLight(p Vec3i) uint8
	SetBlockLight(p Vec3i, v uint8)

	// HasChunk reports whether the chunk is resident.
	HasChunk(cp ChunkPos) bool
	// TerrainHeight is one above the highest non-air voxel of the column, or 0.
	TerrainHeight(x, z int) int
	// Height bounds the vertical range to [0, Height).
	Height() int
}

type Registry interface {
	Opacity(b uint16) uint8
}

// Accessor is the get/set pair over one light channel.
type Accessor struct {
	Get func(p Vec3i) uint8
	Set func(p Vec3i, v uint8)
}

func SkyAccessor(d Dimension) Accessor {
	return Accessor{Get: d.SkyLight, Set: d.SetSkyLight}
}

func BlockAccessor(d Dimension) Accessor {
	return Accessor{Get: d.BlockLight, Set: d.SetBlockLight}
}
