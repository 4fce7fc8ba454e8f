package store

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/alitto/pond/v2"

	"voxlight.ai/internal/sim/light"
	genpkg "voxlight.ai/internal/sim/world/terrain/gen"
)

type ChunkKey = light.ChunkPos

// NibbleArray packs one 4-bit value per voxel, two voxels per byte.
type NibbleArray []byte

func NewNibbleArray(n int) NibbleArray {
	return make(NibbleArray, (n+1)/2)
}

func (a NibbleArray) Get(i int) uint8 {
	if i&1 == 1 {
		return a[i>>1] >> 4
	}
	return a[i>>1] & 0xF
}

func (a NibbleArray) Set(i int, v uint8) {
	if v > 0xF {
		panic("Illegal nibble value")
	}
	if i&1 == 1 {
		a[i>>1] = a[i>>1]&0xF | v<<4
	} else {
		a[i>>1] = a[i>>1]&0xF0 | v
	}
}

func (a NibbleArray) Fill(v uint8) {
	b := v&0xF | v<<4
	for i := range a {
		a[i] = b
	}
}

// Chunk is a full-height 16 x Height x 16 column.
type Chunk struct {
	CX, CZ int
	Height int
	Blocks []uint16 // len = 16*16*Height
	Sky    NibbleArray
	Light  NibbleArray

	// HeightMap holds 1 + the highest non-air y per column, 0 when empty.
	HeightMap [light.ChunkSize * light.ChunkSize]int

	dirty bool
	hash  [32]byte
}

func NewChunk(cx, cz, height int) *Chunk {
	n := light.ChunkSize * light.ChunkSize * height
	return &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: height,
		Blocks: make([]uint16, n),
		Sky:    NewNibbleArray(n),
		Light:  NewNibbleArray(n),
		dirty:  true,
	}
}

func (c *Chunk) Key() ChunkKey { return ChunkKey{CX: c.CX, CZ: c.CZ} }

func (c *Chunk) index(x, y, z int) int {
	return (y*light.ChunkSize+z)*light.ChunkSize + x
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

// Set writes a block in local coordinates and keeps the height map current.
func (c *Chunk) Set(x, y, z int, b uint16, air uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true

	col := z*light.ChunkSize + x
	if y+1 >= c.HeightMap[col] {
		if b == air {
			c.recalculateHeight(x, z, air)
		} else {
			c.HeightMap[col] = y + 1
		}
	}
}

func (c *Chunk) recalculateHeight(x, z int, air uint16) {
	col := z*light.ChunkSize + x
	for y := c.Height - 1; y >= 0; y-- {
		if c.Blocks[c.index(x, y, z)] != air {
			c.HeightMap[col] = y + 1
			return
		}
	}
	c.HeightMap[col] = 0
}

// RecalculateHeightMap rebuilds every column's height, e.g. after import.
func (c *Chunk) RecalculateHeightMap(air uint16) {
	for z := 0; z < light.ChunkSize; z++ {
		for x := 0; x < light.ChunkSize; x++ {
			c.recalculateHeight(x, z, air)
		}
	}
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		h.Write(c.Sky)
		h.Write(c.Light)
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// ChunkStore owns the loaded chunks of one dimension. It is not safe for
// concurrent use; the world loop is its only caller.
type ChunkStore struct {
	Gen    genpkg.WorldGen
	Chunks map[ChunkKey]*Chunk

	gen *genpkg.Generator
	// builders generates chunks off the world loop; workers exit when idle.
	builders pond.Pool
}

var _ light.Dimension = (*ChunkStore)(nil)

func NewChunkStore(gen genpkg.WorldGen) *ChunkStore {
	return &ChunkStore{
		Gen:      gen,
		Chunks:   map[ChunkKey]*Chunk{},
		gen:      genpkg.New(gen),
		builders: pond.NewPool(runtime.NumCPU()),
	}
}

// Put inserts a chunk, replacing any resident chunk with the same key.
func (s *ChunkStore) Put(ch *Chunk) error {
	if ch.Height != s.Gen.Height {
		return fmt.Errorf("chunk %d,%d height mismatch: got %d want %d", ch.CX, ch.CZ, ch.Height, s.Gen.Height)
	}
	s.Chunks[ch.Key()] = ch
	return nil
}

// Unload evicts a resident chunk. Light it passed to its neighbours stays.
func (s *ChunkStore) Unload(k ChunkKey) bool {
	if _, ok := s.Chunks[k]; !ok {
		return false
	}
	delete(s.Chunks, k)
	return true
}

// UnloadArea evicts every resident chunk within radius of center and returns
// the evicted keys, row by row.
func (s *ChunkStore) UnloadArea(center ChunkKey, radius int) []ChunkKey {
	var out []ChunkKey
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			k := ChunkKey{CX: center.CX + dx, CZ: center.CZ + dz}
			if s.Unload(k) {
				out = append(out, k)
			}
		}
	}
	return out
}
