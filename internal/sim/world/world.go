package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/catalogs"
	"voxlight.ai/internal/sim/light"
	"voxlight.ai/internal/sim/world/logic/rates"
	genpkg "voxlight.ai/internal/sim/world/terrain/gen"
	"voxlight.ai/internal/sim/world/terrain/store"
)

var (
	ErrChunkNotLoaded = errors.New("chunk not loaded")
	ErrOutOfBounds    = errors.New("position out of bounds")
	ErrUnknownBlock   = errors.New("unknown block")
	ErrRateLimited    = errors.New("rate limited")
)

type Vec3i = light.Vec3i
type ChunkKey = store.ChunkKey

// EditRequest replaces the block at Pos. Resp may be nil.
type EditRequest struct {
	SessionID string
	Pos       Vec3i
	Block     uint16
	Resp      chan EditResult
}

type EditResult struct {
	Tick uint64
	Prev uint16
	Err  error
}

// LoadRequest makes every chunk within Radius of Center resident, or evicts
// them when Unload is set. Evicted chunks are regenerated from the seed when
// they next load.
type LoadRequest struct {
	Center ChunkKey
	Radius int
	Unload bool
	Resp   chan LoadResult
}

type LoadResult struct {
	Tick     uint64
	Loaded   []ChunkKey
	Unloaded []ChunkKey
}

type RecordedEdit struct {
	SessionID string `json:"session_id,omitempty"`
	Pos       [3]int `json:"pos"`
	From      uint16 `json:"from"`
	To        uint16 `json:"to"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick        uint64         `json:"tick"`
	Edits       []RecordedEdit `json:"edits,omitempty"`
	Loaded      [][2]int       `json:"loaded,omitempty"`
	Unloaded    [][2]int       `json:"unloaded,omitempty"`
	Executed    int            `json:"executed"`
	Failed      int            `json:"failed,omitempty"`
	Unsupported int            `json:"unsupported,omitempty"`
	Rescanned   int            `json:"rescanned,omitempty"`
	QueueSky    int            `json:"queue_sky"`
	QueueBlock  int            `json:"queue_block"`
	Digest      string         `json:"digest"`
}

// World is a single-threaded authoritative lighting simulation over one
// dimension. All chunk state must be accessed only from the world loop
// goroutine; lighting operations may be enqueued from anywhere.
type World struct {
	cfg    WorldConfig
	blocks *catalogs.BlockCatalog
	logger *log.Logger

	tick atomic.Uint64

	chunks  *store.ChunkStore
	queue   *light.Queue
	lighter *light.Lighter

	editLimits map[string]*rates.Window

	edits      chan EditRequest
	loads      chan LoadRequest
	queries    chan lightQueryReq
	chunkReq   chan chunkQueryReq
	admin      chan adminSnapshotReq
	stop       chan struct{}
	tickLogger TickLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	metrics atomic.Value // WorldMetrics
	totals  lightingTotals
}

type lightingTotals struct {
	Executed    uint64
	Failed      uint64
	Unsupported uint64
	Rescanned   uint64
	Edits       uint64
	Rejected    uint64
}

func New(cfg WorldConfig, blocks *catalogs.BlockCatalog) (*World, error) {
	cfg.applyDefaults()
	gen, err := worldGen(cfg, blocks)
	if err != nil {
		return nil, err
	}
	return newWorld(cfg, blocks, store.NewChunkStore(gen)), nil
}

func newWorld(cfg WorldConfig, blocks *catalogs.BlockCatalog, chunks *store.ChunkStore) *World {
	w := &World{
		cfg:        cfg,
		blocks:     blocks,
		logger:     log.New(io.Discard, "", 0),
		chunks:     chunks,
		queue:      light.NewQueue(),
		editLimits: map[string]*rates.Window{},
		edits:      make(chan EditRequest, 1024),
		loads:      make(chan LoadRequest, 64),
		queries:    make(chan lightQueryReq, 256),
		chunkReq:   make(chan chunkQueryReq, 64),
		admin:      make(chan adminSnapshotReq, 8),
		stop:       make(chan struct{}),
	}
	w.lighter = light.NewLighter(chunks, light.NewOverworld(chunks, blocks))
	return w
}

func worldGen(cfg WorldConfig, blocks *catalogs.BlockCatalog) (genpkg.WorldGen, error) {
	// Resolve required block ids.
	ids := map[string]uint16{}
	for _, name := range []string{"AIR", "STONE", "DIRT", "GRASS", "LOG", "LEAVES", "GLOWSTONE"} {
		id, ok := blocks.ID(name)
		if !ok {
			return genpkg.WorldGen{}, fmt.Errorf("missing block id in palette: %s", name)
		}
		ids[name] = id
	}
	return genpkg.WorldGen{
		Seed:         cfg.Seed,
		Height:       cfg.Height,
		BaseHeight:   cfg.BaseHeight,
		Amplitude:    cfg.Amplitude,
		NoiseScale:   cfg.NoiseScale,
		TreePermille: cfg.TreePermille,
		LampPermille: cfg.LampPermille,
		Air:          ids["AIR"],
		Stone:        ids["STONE"],
		Dirt:         ids["DIRT"],
		Grass:        ids["GRASS"],
		Log:          ids["LOG"],
		Leaves:       ids["LEAVES"],
		Glowstone:    ids["GLOWSTONE"],
	}, nil
}

func (w *World) SetLogger(l *log.Logger) {
	if l != nil {
		w.logger = l
	}
}
func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Edits() chan<- EditRequest { return w.edits }
func (w *World) Loads() chan<- LoadRequest { return w.loads }

// Queue is the lighting work queue. Producers on any goroutine may enqueue
// operations; they are executed by the world loop.
func (w *World) Queue() *light.Queue { return w.queue }

func (w *World) Blocks() *catalogs.BlockCatalog { return w.blocks }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Height() int { return w.cfg.Height }

func (w *World) Seed() int64 { return w.cfg.Seed }

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}
