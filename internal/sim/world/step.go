package world

import (
	"fmt"
	"time"

	"voxlight.ai/internal/sim/light"
	"voxlight.ai/internal/sim/world/logic/rates"
)

func (w *World) stepInternal(loads []LoadRequest, edits []EditRequest) {
	start := time.Now()
	nowTick := w.tick.Load()

	// Unloads, then loads, so edits in the same tick can target fresh chunks.
	// Queued work aimed at an evicted chunk is dropped when it is dequeued.
	var loaded, unloaded []ChunkKey
	results := make([]LoadResult, len(loads))
	for i, req := range loads {
		if req.Unload {
			results[i].Unloaded = w.chunks.UnloadArea(req.Center, req.Radius)
			unloaded = append(unloaded, results[i].Unloaded...)
		}
	}
	for i, req := range loads {
		if !req.Unload {
			results[i].Loaded = w.chunks.GenerateArea(req.Center, req.Radius)
			loaded = append(loaded, results[i].Loaded...)
		}
	}
	for i, req := range loads {
		if req.Resp == nil {
			continue
		}
		results[i].Tick = nowTick
		select {
		case req.Resp <- results[i]:
		default:
		}
	}
	w.enqueueChunkLighting(loaded)

	var ls lightingStep
	var recorded []RecordedEdit
	for _, req := range edits {
		res := w.applyEdit(nowTick, req, &ls)
		if res.Err == nil {
			w.totals.Edits++
			if res.Prev != req.Block {
				recorded = append(recorded, RecordedEdit{
					SessionID: req.SessionID,
					Pos:       [3]int{req.Pos.X, req.Pos.Y, req.Pos.Z},
					From:      res.Prev,
					To:        req.Block,
				})
			}
		} else {
			w.totals.Rejected++
		}
		if req.Resp != nil {
			select {
			case req.Resp <- res:
			default:
			}
		}
	}

	w.drainLighting(nowTick, &ls)
	w.totals.Executed += uint64(ls.executed)
	w.totals.Failed += uint64(ls.failed)
	w.totals.Unsupported += uint64(ls.unsupported)
	w.totals.Rescanned += uint64(ls.rescanned)

	w.tick.Add(1)

	entry := TickLogEntry{
		Tick:        nowTick,
		Edits:       recorded,
		Executed:    ls.executed,
		Failed:      ls.failed,
		Unsupported: ls.unsupported,
		Rescanned:   ls.rescanned,
		QueueSky:    w.queue.LenChannel(light.Sky),
		QueueBlock:  w.queue.LenChannel(light.Block),
	}
	for _, k := range loaded {
		entry.Loaded = append(entry.Loaded, [2]int{k.CX, k.CZ})
	}
	for _, k := range unloaded {
		entry.Unloaded = append(entry.Unloaded, [2]int{k.CX, k.CZ})
	}
	if w.tickLogger != nil {
		entry.Digest = w.stateDigest()
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.logger.Printf("tick %d: write tick log: %v", nowTick, err)
		}
	}

	if every := uint64(w.cfg.SnapshotEveryTicks); every > 0 && w.snapshotSink != nil && nowTick > 0 && nowTick%every == 0 {
		select {
		case w.snapshotSink <- w.ExportSnapshot(nowTick):
		default:
			w.logger.Printf("tick %d: snapshot sink backpressure, skipping", nowTick)
		}
	}

	w.storeMetrics(nowTick, time.Since(start))
}

func (w *World) applyEdit(nowTick uint64, req EditRequest, ls *lightingStep) EditResult {
	res := EditResult{Tick: nowTick}
	p := req.Pos
	switch {
	case p.Y < 0 || p.Y >= w.cfg.Height:
		res.Err = fmt.Errorf("%w: y=%d", ErrOutOfBounds, p.Y)
		return res
	case int(req.Block) >= len(w.blocks.Palette):
		res.Err = fmt.Errorf("%w: %d", ErrUnknownBlock, req.Block)
		return res
	case !w.chunks.HasChunk(light.ChunkOf(p)):
		res.Err = fmt.Errorf("%w: %v", ErrChunkNotLoaded, light.ChunkOf(p))
		return res
	}
	if req.SessionID != "" {
		win := w.editLimits[req.SessionID]
		if win == nil {
			win = &rates.Window{}
			w.editLimits[req.SessionID] = win
		}
		if ok, cd := win.Allow(nowTick, uint64(w.cfg.EditWindowTicks), w.cfg.EditMax); !ok {
			res.Err = fmt.Errorf("%w: retry in %d ticks", ErrRateLimited, cd)
			return res
		}
	}

	res.Prev = w.chunks.Block(p)
	if res.Prev == req.Block {
		return res
	}
	// Opening a voxel samples its neighbours' light, so earlier edits of this
	// tick must have settled first.
	if w.blocks.Opacity(req.Block) < w.blocks.Opacity(res.Prev) && w.queue.Len() > 0 {
		w.drainLighting(nowTick, ls)
	}
	oldH := w.chunks.TerrainHeight(p.X, p.Z)
	w.chunks.SetBlock(p, req.Block)
	newH := w.chunks.TerrainHeight(p.X, p.Z)
	w.enqueueEditLighting(p, res.Prev, req.Block, oldH != newH)
	return res
}

type lightingStep struct {
	executed    int
	failed      int
	unsupported int
	rescanned   int
}

func (ls *lightingStep) spent() int { return ls.executed + ls.failed + ls.unsupported }

// drainLighting runs queued lighting work within what is left of the
// per-tick budget. Ops the lighter rejects as unsupported trigger a rescan of
// their chunks, whose follow-up floods are drained in the same tick while
// budget remains.
func (w *World) drainLighting(nowTick uint64, ls *lightingStep) {
	budget := w.cfg.OpsPerTick
	remaining := 0
	if budget > 0 {
		remaining = budget - ls.spent()
		if remaining <= 0 {
			return
		}
	}
	for {
		res := w.lighter.Drain(w.queue, remaining)
		ls.executed += res.Executed
		ls.failed += res.Failed
		ls.unsupported += len(res.Unsupported)

		if res.Failed > 0 {
			w.logger.Printf("tick %d: %d invalid lighting ops dropped", nowTick, res.Failed)
		}
		if len(res.Unsupported) == 0 {
			break
		}
		if !w.cfg.RescanUnsupported {
			w.logger.Printf("tick %d: %d unsupported lighting ops left stale light (first: %s)", nowTick, len(res.Unsupported), res.Unsupported[0])
			break
		}
		ls.rescanned += w.rescan(res.Unsupported)

		if budget > 0 {
			remaining = budget - ls.spent()
			if remaining <= 0 {
				break
			}
		}
	}
}
