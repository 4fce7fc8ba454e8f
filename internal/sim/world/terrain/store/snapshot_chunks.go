package store

import (
	"fmt"

	snapv1 "voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/light"
	genpkg "voxlight.ai/internal/sim/world/terrain/gen"
)

// ExportLoadedChunks converts loaded chunk data, light included, into
// snapshot chunks.
func ExportLoadedChunks(chunks map[ChunkKey]*Chunk, keys []ChunkKey) []snapv1.ChunkV1 {
	out := make([]snapv1.ChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := chunks[k]
		if ch == nil {
			continue
		}
		blocks := make([]uint16, len(ch.Blocks))
		copy(blocks, ch.Blocks)
		out = append(out, snapv1.ChunkV1{
			CX:         k.CX,
			CZ:         k.CZ,
			Height:     ch.Height,
			Blocks:     blocks,
			SkyLight:   append([]byte(nil), ch.Sky...),
			BlockLight: append([]byte(nil), ch.Light...),
		})
	}
	return out
}

// ImportChunks rebuilds a chunk store from snapshot chunks.
func ImportChunks(gen genpkg.WorldGen, chunks []snapv1.ChunkV1) (*ChunkStore, error) {
	store := NewChunkStore(gen)
	for _, ch := range chunks {
		if ch.Height != gen.Height {
			return nil, fmt.Errorf("snapshot chunk height mismatch: got %d want %d", ch.Height, gen.Height)
		}
		n := light.ChunkSize * light.ChunkSize * gen.Height
		if len(ch.Blocks) != n {
			return nil, fmt.Errorf("snapshot chunk blocks length mismatch: got %d want %d", len(ch.Blocks), n)
		}
		if len(ch.SkyLight) != (n+1)/2 || len(ch.BlockLight) != (n+1)/2 {
			return nil, fmt.Errorf("snapshot chunk %d,%d light length mismatch", ch.CX, ch.CZ)
		}
		c := NewChunk(ch.CX, ch.CZ, gen.Height)
		copy(c.Blocks, ch.Blocks)
		copy(c.Sky, ch.SkyLight)
		copy(c.Light, ch.BlockLight)
		c.RecalculateHeightMap(gen.Air)
		_ = c.Digest()
		store.Chunks[c.Key()] = c
	}
	return store, nil
}
