package world

import (
	"context"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingEdits []EditRequest
	var pendingLoads []LoadRequest
	var pendingAdmin []adminSnapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.queries:
			w.handleLightQuery(req)
		case req := <-w.chunkReq:
			w.handleChunkQuery(req)
		case req := <-w.admin:
			pendingAdmin = append(pendingAdmin, req)
		case req := <-w.loads:
			pendingLoads = append(pendingLoads, req)
		case req := <-w.edits:
			pendingEdits = append(pendingEdits, req)
		case <-ticker.C:
			w.stepInternal(pendingLoads, pendingEdits)
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingEdits = pendingEdits[:0]
			pendingLoads = pendingLoads[:0]
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering
// semantics as the server. It must not be called while Run is active.
func (w *World) StepOnce(loads []LoadRequest, edits []EditRequest) (tick uint64, digest string) {
	tick = w.tick.Load()
	w.stepInternal(loads, edits)
	return tick, w.stateDigest()
}
