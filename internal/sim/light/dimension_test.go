package light

const (
	testAir    uint16 = 0
	testStone  uint16 = 1
	testLeaves uint16 = 2
	testGlass  uint16 = 3
	testLamp   uint16 = 4
)

type testRegistry map[uint16]uint8

func (r testRegistry) Opacity(b uint16) uint8 {
	op, ok := r[b]
	if !ok {
		return MaxLight
	}
	return op
}

func newTestRegistry() testRegistry {
	return testRegistry{
		testAir:    0,
		testStone:  15,
		testLeaves: 1,
		testGlass:  0,
		testLamp:   0,
	}
}

// memDim is a sparse in-memory Dimension for tests.
type memDim struct {
	height int
	chunks map[ChunkPos]bool
	blocks map[Vec3i]uint16
	sky    map[Vec3i]uint8
	blk    map[Vec3i]uint8
}

func newMemDim(height int, chunks ...ChunkPos) *memDim {
	d := &memDim{
		height: height,
		chunks: map[ChunkPos]bool{},
		blocks: map[Vec3i]uint16{},
		sky:    map[Vec3i]uint8{},
		blk:    map[Vec3i]uint8{},
	}
	for _, cp := range chunks {
		d.chunks[cp] = true
	}
	return d
}

func (d *memDim) resident(p Vec3i) bool {
	return p.Y >= 0 && p.Y < d.height && d.chunks[ChunkOf(p)]
}

func (d *memDim) Block(p Vec3i) uint16 { return d.blocks[p] }

func (d *memDim) SetBlock(p Vec3i, b uint16) {
	if !d.resident(p) {
		return
	}
	if b == testAir {
		delete(d.blocks, p)
		return
	}
	d.blocks[p] = b
}

func (d *memDim) SkyLight(p Vec3i) uint8 { return d.sky[p] }

func (d *memDim) SetSkyLight(p Vec3i, v uint8) {
	if d.resident(p) {
		d.sky[p] = v
	}
}

func (d *memDim) BlockLight(p Vec3i) uint8 { return d.blk[p] }

func (d *memDim) SetBlockLight(p Vec3i, v uint8) {
	if d.resident(p) {
		d.blk[p] = v
	}
}

func (d *memDim) HasChunk(cp ChunkPos) bool { return d.chunks[cp] }

func (d *memDim) TerrainHeight(x, z int) int {
	for y := d.height - 1; y >= 0; y-- {
		if d.blocks[Vec3i{X: x, Y: y, Z: z}] != testAir {
			return y + 1
		}
	}
	return 0
}

func (d *memDim) Height() int { return d.height }

// fill sets every voxel of the chunk with y in [y0, y1) to b.
func (d *memDim) fill(cp ChunkPos, y0, y1 int, b uint16) {
	o := cp.Origin()
	for y := y0; y < y1; y++ {
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				d.SetBlock(Vec3i{X: o.X + x, Y: y, Z: o.Z + z}, b)
			}
		}
	}
}

func copyLight(m map[Vec3i]uint8) map[Vec3i]uint8 {
	out := make(map[Vec3i]uint8, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
