package world

import (
	"fmt"

	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/catalogs"
	"voxlight.ai/internal/sim/light"
	"voxlight.ai/internal/sim/world/terrain/store"
)

// ExportSnapshot captures every resident chunk and the pending lighting work.
// It must run on the world loop goroutine.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	keys := w.chunks.LoadedChunkKeys()
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:          w.cfg.Seed,
		TickRate:      w.cfg.TickRateHz,
		Height:        w.cfg.Height,
		BaseHeight:    w.cfg.BaseHeight,
		Amplitude:     w.cfg.Amplitude,
		NoiseScale:    w.cfg.NoiseScale,
		TreePermille:  w.cfg.TreePermille,
		LampPermille:  w.cfg.LampPermille,
		PaletteDigest: w.blocks.PaletteDigest,
		Chunks:        store.ExportLoadedChunks(w.chunks.Chunks, keys),
		PendingOps:    w.pendingOps(),
	}
}

// pendingOps lists queued operations in dequeue order without losing them.
func (w *World) pendingOps() []snapshot.OperationV1 {
	var popped []light.Operation
	for {
		op, ok := w.queue.Dequeue()
		if !ok {
			break
		}
		popped = append(popped, op)
	}
	for i := len(popped) - 1; i >= 0; i-- {
		w.queue.Push(popped[i])
	}
	out := make([]snapshot.OperationV1, 0, len(popped))
	for _, op := range popped {
		out = append(out, snapshot.OperationV1{
			Seed:      [3]int{op.Seed.X, op.Seed.Y, op.Seed.Z},
			Channel:   uint8(op.Channel),
			Kind:      uint8(op.Kind),
			Mode:      uint8(op.Mode),
			Magnitude: op.Magnitude,
		})
	}
	return out
}

// NewFromSnapshot restores a world. Generation parameters come from the
// snapshot so chunks loaded later match the ones already saved.
func NewFromSnapshot(cfg WorldConfig, blocks *catalogs.BlockCatalog, snap snapshot.SnapshotV1) (*World, error) {
	if snap.PaletteDigest != "" && snap.PaletteDigest != blocks.PaletteDigest {
		return nil, fmt.Errorf("snapshot palette digest mismatch: got %s want %s", snap.PaletteDigest, blocks.PaletteDigest)
	}
	if snap.Header.WorldID != "" {
		cfg.ID = snap.Header.WorldID
	}
	cfg.Seed = snap.Seed
	cfg.Height = snap.Height
	if snap.TickRate > 0 {
		cfg.TickRateHz = snap.TickRate
	}
	cfg.BaseHeight = snap.BaseHeight
	cfg.Amplitude = snap.Amplitude
	cfg.NoiseScale = snap.NoiseScale
	cfg.TreePermille = snap.TreePermille
	cfg.LampPermille = snap.LampPermille
	cfg.applyDefaults()

	gen, err := worldGen(cfg, blocks)
	if err != nil {
		return nil, err
	}
	chunks, err := store.ImportChunks(gen, snap.Chunks)
	if err != nil {
		return nil, fmt.Errorf("import chunks: %w", err)
	}
	w := newWorld(cfg, blocks, chunks)
	for i := len(snap.PendingOps) - 1; i >= 0; i-- {
		o := snap.PendingOps[i]
		w.queue.Push(light.Operation{
			Seed:      Vec3i{X: o.Seed[0], Y: o.Seed[1], Z: o.Seed[2]},
			Channel:   light.Channel(o.Channel),
			Kind:      light.Kind(o.Kind),
			Mode:      light.Mode(o.Mode),
			Magnitude: o.Magnitude,
		})
	}
	// Snapshots are taken after the tick completed.
	w.tick.Store(snap.Header.Tick + 1)
	return w, nil
}
