package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"voxlight.ai/internal/sim/light"
)

type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	LoadedChunks int `json:"loaded_chunks"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	OpsExecuted    uint64 `json:"ops_executed_total"`
	OpsFailed      uint64 `json:"ops_failed_total"`
	OpsUnsupported uint64 `json:"ops_unsupported_total"`
	Rescans        uint64 `json:"rescans_total"`
	Edits          uint64 `json:"edits_total"`
	EditsRejected  uint64 `json:"edits_rejected_total"`
}

type QueueDepths struct {
	Sky   int `json:"sky"`
	Block int `json:"block"`
	Edits int `json:"edits"`
	Loads int `json:"loads"`
}

// Metrics returns the figures stored at the end of the last tick. It is safe
// to call from any goroutine.
func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}

func (w *World) storeMetrics(nowTick uint64, took time.Duration) {
	w.metrics.Store(WorldMetrics{
		Tick:         nowTick,
		LoadedChunks: len(w.chunks.Chunks),
		QueueDepths: QueueDepths{
			Sky:   w.queue.LenChannel(light.Sky),
			Block: w.queue.LenChannel(light.Block),
			Edits: len(w.edits),
			Loads: len(w.loads),
		},
		StepMS:         float64(took.Microseconds()) / 1000,
		OpsExecuted:    w.totals.Executed,
		OpsFailed:      w.totals.Failed,
		OpsUnsupported: w.totals.Unsupported,
		Rescans:        w.totals.Rescanned,
		Edits:          w.totals.Edits,
		EditsRejected:  w.totals.Rejected,
	})
}

// stateDigest hashes the seed and every resident chunk in key order.
func (w *World) stateDigest() string {
	h := sha256.New()
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(w.cfg.Seed))
	h.Write(tmp[:])
	for _, k := range w.chunks.LoadedChunkKeys() {
		ch, _ := w.chunks.Chunk(k)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(k.CX)))
		h.Write(tmp[:])
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(k.CZ)))
		h.Write(tmp[:])
		d := ch.Digest()
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// StateDigest must only be called when Run is not active.
func (w *World) StateDigest() string { return w.stateDigest() }
