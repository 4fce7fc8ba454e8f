package world

import (
	"context"
	"errors"

	"voxlight.ai/internal/sim/light"
)

type LightSample struct {
	Tick   uint64
	Pos    Vec3i
	Block  uint16
	Sky    uint8
	Light  uint8
	Loaded bool
}

type lightQueryReq struct {
	Pos  Vec3i
	Resp chan LightSample
}

// ChunkLight is a copy of one resident chunk's voxel and light data.
type ChunkLight struct {
	Tick   uint64
	Key    ChunkKey
	Height int
	Loaded bool
	Blocks []uint16
	Sky    []byte // packed nibbles
	Light  []byte // packed nibbles
}

type chunkQueryReq struct {
	Key  ChunkKey
	Resp chan ChunkLight
}

// QueryLight reads both light channels at pos. It is safe to call from other
// goroutines while Run is active.
func (w *World) QueryLight(ctx context.Context, pos Vec3i) (LightSample, error) {
	if w == nil || w.queries == nil {
		return LightSample{}, errors.New("world not available")
	}
	resp := make(chan LightSample, 1)
	select {
	case w.queries <- lightQueryReq{Pos: pos, Resp: resp}:
	case <-ctx.Done():
		return LightSample{}, ctx.Err()
	}
	select {
	case s := <-resp:
		return s, nil
	case <-ctx.Done():
		return LightSample{}, ctx.Err()
	}
}

func (w *World) QueryChunk(ctx context.Context, k ChunkKey) (ChunkLight, error) {
	if w == nil || w.chunkReq == nil {
		return ChunkLight{}, errors.New("world not available")
	}
	resp := make(chan ChunkLight, 1)
	select {
	case w.chunkReq <- chunkQueryReq{Key: k, Resp: resp}:
	case <-ctx.Done():
		return ChunkLight{}, ctx.Err()
	}
	select {
	case c := <-resp:
		return c, nil
	case <-ctx.Done():
		return ChunkLight{}, ctx.Err()
	}
}

func (w *World) handleLightQuery(req lightQueryReq) {
	s := w.sampleLight(req.Pos)
	select {
	case req.Resp <- s:
	default:
	}
}

func (w *World) sampleLight(p Vec3i) LightSample {
	return LightSample{
		Tick:   w.tick.Load(),
		Pos:    p,
		Block:  w.chunks.Block(p),
		Sky:    w.chunks.SkyLight(p),
		Light:  w.chunks.BlockLight(p),
		Loaded: p.Y >= 0 && p.Y < w.cfg.Height && w.chunks.HasChunk(light.ChunkOf(p)),
	}
}

func (w *World) handleChunkQuery(req chunkQueryReq) {
	c := w.copyChunk(req.Key)
	select {
	case req.Resp <- c:
	default:
	}
}

func (w *World) copyChunk(k ChunkKey) ChunkLight {
	out := ChunkLight{Tick: w.tick.Load(), Key: k, Height: w.cfg.Height}
	ch, ok := w.chunks.Chunk(k)
	if !ok {
		return out
	}
	out.Loaded = true
	out.Blocks = append([]uint16(nil), ch.Blocks...)
	out.Sky = append([]byte(nil), ch.Sky...)
	out.Light = append([]byte(nil), ch.Light...)
	return out
}
