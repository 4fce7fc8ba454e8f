package store

import "voxlight.ai/internal/sim/light"

// buildChunk generates a chunk without touching the store, so it may run on
// any goroutine.
func (s *ChunkStore) buildChunk(k ChunkKey) *Chunk {
	g := s.gen
	cfg := g.Config()
	ch := NewChunk(k.CX, k.CZ, cfg.Height)
	o := k.Origin()

	for z := 0; z < light.ChunkSize; z++ {
		for x := 0; x < light.ChunkSize; x++ {
			h := g.HeightAt(o.X+x, o.Z+z)
			for y := 0; y < h; y++ {
				ch.Set(x, y, z, g.Column(y, h), cfg.Air)
			}
		}
	}

	// Decorations stay 2 blocks inside the chunk so they never straddle a border.
	for z := 2; z < light.ChunkSize-2; z++ {
		for x := 2; x < light.ChunkSize-2; x++ {
			wx, wz := o.X+x, o.Z+z
			h := ch.HeightMap[z*light.ChunkSize+x]
			switch {
			case g.TreeAt(wx, wz):
				placeTree(ch, x, h, z, cfg.Log, cfg.Leaves, cfg.Air)
			case g.LampAt(wx, wz) && h > 0:
				ch.Set(x, h-1, z, cfg.Glowstone, cfg.Air)
			}
		}
	}
	return ch
}

func placeTree(ch *Chunk, x, base, z int, log, leaves, air uint16) {
	if base+6 > ch.Height {
		return
	}
	for dy := 2; dy <= 4; dy++ {
		r := 2
		if dy == 4 {
			r = 1
		}
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if ch.Get(x+dx, base+dy, z+dz) == air {
					ch.Set(x+dx, base+dy, z+dz, leaves, air)
				}
			}
		}
	}
	for dy := 0; dy < 4; dy++ {
		ch.Set(x, base+dy, z, log, air)
	}
}

// Generate creates and inserts the chunk if it is not already resident.
func (s *ChunkStore) Generate(k ChunkKey) *Chunk {
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := s.buildChunk(k)
	s.Chunks[k] = ch
	return ch
}

// GenerateArea generates every missing chunk within radius of center on a
// worker pool and returns the keys it inserted, row by row.
func (s *ChunkStore) GenerateArea(center ChunkKey, radius int) []ChunkKey {
	var missing []ChunkKey
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			k := ChunkKey{CX: center.CX + dx, CZ: center.CZ + dz}
			if !s.HasChunk(k) {
				missing = append(missing, k)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	built := make([]*Chunk, len(missing))
	group := s.builders.NewGroup()
	for i, k := range missing {
		i, k := i, k
		group.Submit(func() {
			built[i] = s.buildChunk(k)
		})
	}
	if err := group.Wait(); err != nil {
		// The pool recovers task panics; surface them on the caller.
		panic(err)
	}

	for _, ch := range built {
		s.Chunks[ch.Key()] = ch
	}
	return missing
}
