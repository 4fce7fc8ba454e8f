package store

import (
	"sort"

	"voxlight.ai/internal/sim/light"
	"voxlight.ai/internal/sim/world/logic/mathx"
)

func (s *ChunkStore) Height() int { return s.Gen.Height }

func (s *ChunkStore) HasChunk(k ChunkKey) bool {
	_, ok := s.Chunks[k]
	return ok
}

func (s *ChunkStore) Chunk(k ChunkKey) (*Chunk, bool) {
	ch, ok := s.Chunks[k]
	return ch, ok
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// locate resolves a global voxel to its resident chunk and local index.
func (s *ChunkStore) locate(p light.Vec3i) (*Chunk, int, bool) {
	if p.Y < 0 || p.Y >= s.Gen.Height {
		return nil, 0, false
	}
	ch, ok := s.Chunks[light.ChunkOf(p)]
	if !ok {
		return nil, 0, false
	}
	lx := mathx.Mod(p.X, light.ChunkSize)
	lz := mathx.Mod(p.Z, light.ChunkSize)
	return ch, ch.index(lx, p.Y, lz), true
}

func (s *ChunkStore) Block(p light.Vec3i) uint16 {
	ch, i, ok := s.locate(p)
	if !ok {
		return s.Gen.Air
	}
	return ch.Blocks[i]
}

func (s *ChunkStore) SetBlock(p light.Vec3i, b uint16) {
	ch, _, ok := s.locate(p)
	if !ok {
		return
	}
	ch.Set(mathx.Mod(p.X, light.ChunkSize), p.Y, mathx.Mod(p.Z, light.ChunkSize), b, s.Gen.Air)
}

func (s *ChunkStore) SkyLight(p light.Vec3i) uint8 {
	ch, i, ok := s.locate(p)
	if !ok {
		return 0
	}
	return ch.Sky.Get(i)
}

func (s *ChunkStore) SetSkyLight(p light.Vec3i, v uint8) {
	ch, i, ok := s.locate(p)
	if !ok {
		return
	}
	if ch.Sky.Get(i) != v {
		ch.Sky.Set(i, v)
		ch.dirty = true
	}
}

func (s *ChunkStore) BlockLight(p light.Vec3i) uint8 {
	ch, i, ok := s.locate(p)
	if !ok {
		return 0
	}
	return ch.Light.Get(i)
}

func (s *ChunkStore) SetBlockLight(p light.Vec3i, v uint8) {
	ch, i, ok := s.locate(p)
	if !ok {
		return
	}
	if ch.Light.Get(i) != v {
		ch.Light.Set(i, v)
		ch.dirty = true
	}
}

func (s *ChunkStore) TerrainHeight(x, z int) int {
	ch, ok := s.Chunks[light.ChunkOf(light.Vec3i{X: x, Z: z})]
	if !ok {
		return 0
	}
	return ch.HeightMap[mathx.Mod(z, light.ChunkSize)*light.ChunkSize+mathx.Mod(x, light.ChunkSize)]
}

// ResetLight zeroes one light channel of a resident chunk.
func (s *ChunkStore) ResetLight(k ChunkKey, ch light.Channel) bool {
	c, ok := s.Chunks[k]
	if !ok {
		return false
	}
	if ch == light.Sky {
		c.Sky.Fill(0)
	} else {
		c.Light.Fill(0)
	}
	c.dirty = true
	return true
}

type Emitter struct {
	Pos   light.Vec3i
	Level uint8
}

// Emitters lists the light-emitting voxels of a resident chunk in index order.
func (s *ChunkStore) Emitters(k ChunkKey, emission func(b uint16) uint8) []Emitter {
	c, ok := s.Chunks[k]
	if !ok {
		return nil
	}
	var out []Emitter
	o := k.Origin()
	for i, b := range c.Blocks {
		if b == s.Gen.Air {
			continue
		}
		lvl := emission(b)
		if lvl == 0 {
			continue
		}
		x := i % light.ChunkSize
		z := (i / light.ChunkSize) % light.ChunkSize
		y := i / (light.ChunkSize * light.ChunkSize)
		out = append(out, Emitter{Pos: light.Vec3i{X: o.X + x, Y: y, Z: o.Z + z}, Level: lvl})
	}
	return out
}
