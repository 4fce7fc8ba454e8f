package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "voxlight.ai/internal/persistence/log"
	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/catalogs"
	"voxlight.ai/internal/sim/tuning"
	"voxlight.ai/internal/sim/world"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "overworld", "world id")
		seed       = flag.Int64("seed", 0, "override worldgen seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (ticks + edits + catalogs + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	blocksPath := filepath.Join(*configDir, "blocks.json")
	blocksJSON, err := os.ReadFile(blocksPath)
	if err != nil {
		logger.Fatalf("read block catalog: %v", err)
	}
	blocks, err := catalogs.Parse(blocksJSON)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	// Tuning is required for a fresh world; a resume takes generation
	// parameters from the snapshot.
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" || !os.IsNotExist(tuneErr) {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.WorldGen.Seed = *seed
	}

	// Optional read-model index (does not affect sim determinism).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(blocksJSON, blocks, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	cfg := world.ConfigFromTuning(*worldID, tune)
	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		w, err = world.NewFromSnapshot(cfg, blocks, snap)
		if err != nil {
			logger.Fatalf("restore snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d chunks=%d pending_ops=%d",
			filepath.Base(snapshotToLoad), w.CurrentTick(), len(snap.Chunks), len(snap.PendingOps))
	} else {
		w, err = world.New(cfg, blocks)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}
	w.SetLogger(logger)

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	if idx != nil {
		w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
	} else {
		w.SetTickLogger(tickLog)
	}

	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	var recorder snapshotRecorder
	if idx != nil {
		recorder = idx
	}
	go runSnapshotWriter(ctx, worldDir, snapCh, recorder, logger)

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	// Make the spawn area resident before accepting clients.
	if tune.LoadRadius > 0 {
		lctx, lcancel := context.WithTimeout(ctx, 30*time.Second)
		res, err := w.LoadArea(lctx, world.ChunkKey{}, tune.LoadRadius)
		lcancel()
		if err != nil {
			logger.Fatalf("initial load: %v", err)
		}
		logger.Printf("initial load: tick=%d chunks=%d", res.Tick, len(res.Loaded))
	}

	opts := httpOptions{
		AdminHTTP: envBool("VL_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		PprofHTTP: envBool("VL_ENABLE_PPROF_HTTP", false),
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(w, idx, opts, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s world=%s seed=%d", *addr, w.ID(), w.Seed())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

type snapshotRecorder interface {
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

func runSnapshotWriter(ctx context.Context, worldDir string, snaps <-chan snapshot.SnapshotV1, idx snapshotRecorder, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-snaps:
			path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("snapshot write: %v", err)
				continue
			}
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	var first error
	if m.a != nil {
		first = m.a.WriteTick(entry)
	}
	if m.b != nil {
		if err := m.b.WriteTick(entry); first == nil {
			first = err
		}
	}
	return first
}
