package world

import (
	"context"
	"errors"
)

var errNotAvailable = errors.New("world not available")

// SubmitEdit queues a block edit for the next tick and waits for its result.
// It is safe to call from other goroutines (e.g. websocket sessions).
func (w *World) SubmitEdit(ctx context.Context, sessionID string, pos Vec3i, block uint16) (EditResult, error) {
	if w == nil || w.edits == nil {
		return EditResult{}, errNotAvailable
	}
	resp := make(chan EditResult, 1)
	select {
	case w.edits <- EditRequest{SessionID: sessionID, Pos: pos, Block: block, Resp: resp}:
	case <-ctx.Done():
		return EditResult{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, r.Err
	case <-ctx.Done():
		return EditResult{}, ctx.Err()
	}
}

// LoadArea generates the missing chunks around center on the next tick.
func (w *World) LoadArea(ctx context.Context, center ChunkKey, radius int) (LoadResult, error) {
	return w.submitLoad(ctx, LoadRequest{Center: center, Radius: radius})
}

// UnloadArea evicts the resident chunks around center on the next tick.
func (w *World) UnloadArea(ctx context.Context, center ChunkKey, radius int) (LoadResult, error) {
	return w.submitLoad(ctx, LoadRequest{Center: center, Radius: radius, Unload: true})
}

func (w *World) submitLoad(ctx context.Context, req LoadRequest) (LoadResult, error) {
	if w == nil || w.loads == nil {
		return LoadResult{}, errNotAvailable
	}
	resp := make(chan LoadResult, 1)
	req.Resp = resp
	select {
	case w.loads <- req:
	case <-ctx.Done():
		return LoadResult{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return LoadResult{}, ctx.Err()
	}
}

type adminSnapshotReq struct {
	Resp chan SnapshotInfo
}

type SnapshotInfo struct {
	Tick   uint64
	Chunks int
	Err    string
}

// RequestSnapshot asks the world loop goroutine to hand a snapshot of the
// last completed tick to the snapshot sink.
func (w *World) RequestSnapshot(ctx context.Context) (SnapshotInfo, error) {
	if w == nil || w.admin == nil {
		return SnapshotInfo{}, errors.New("admin snapshot not available")
	}
	resp := make(chan SnapshotInfo, 1)
	select {
	case w.admin <- adminSnapshotReq{Resp: resp}:
	case <-ctx.Done():
		return SnapshotInfo{}, ctx.Err()
	}
	select {
	case r := <-resp:
		if r.Err != "" {
			return r, errors.New(r.Err)
		}
		return r, nil
	case <-ctx.Done():
		return SnapshotInfo{}, ctx.Err()
	}
}

func (w *World) handleAdminSnapshotRequests(reqs []adminSnapshotReq) {
	if len(reqs) == 0 {
		return
	}
	info := SnapshotInfo{}
	if cur := w.tick.Load(); cur > 0 {
		info.Tick = cur - 1
	}
	if w.snapshotSink == nil {
		info.Err = "snapshot sink not configured"
	} else {
		snap := w.ExportSnapshot(info.Tick)
		info.Chunks = len(snap.Chunks)
		select {
		case w.snapshotSink <- snap:
		default:
			info.Err = "snapshot sink backpressure"
		}
	}
	for _, r := range reqs {
		if r.Resp == nil {
			continue
		}
		select {
		case r.Resp <- info:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
}
