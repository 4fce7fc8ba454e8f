package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "voxlight.ai/internal/persistence/log"
	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/catalogs"
	"voxlight.ai/internal/sim/tuning"
	"voxlight.ai/internal/sim/world"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst (optional; empty replays from a fresh world)")
		ticksDir   = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldID    = flag.String("world", "overworld", "world id for fresh replays")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	blocks, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	cfg := world.ConfigFromTuning(*worldID, tune)

	var w *world.World
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d world=%s tick=%d seed=%d height=%d chunks=%d pending_ops=%d\n",
			snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed, snap.Height,
			len(snap.Chunks), len(snap.PendingOps))
		w, err = world.NewFromSnapshot(cfg, blocks, snap)
		if err != nil {
			fmt.Fprintln(os.Stderr, "restore snapshot:", err)
			os.Exit(1)
		}
	} else {
		w, err = world.New(cfg, blocks)
		if err != nil {
			fmt.Fprintln(os.Stderr, "world:", err)
			os.Exit(1)
		}
	}
	if *ticksDir == "" {
		return
	}

	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list tick logs:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick logs found in", *ticksDir)
		os.Exit(1)
	}

	startTick := w.CurrentTick()
	r := replayer{w: w, verifyFrom: *fromTick, toTick: *toTick}
	if r.verifyFrom == 0 {
		r.verifyFrom = startTick
	}
	for _, path := range files {
		entries, err := persistlog.ReadTickLog(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read tick log:", err)
			os.Exit(1)
		}
		done, err := r.apply(entries)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay %s: %v\n", filepath.Base(path), err)
			os.Exit(1)
		}
		if done {
			break
		}
	}
	fmt.Printf("replay ok: checked=%d ticks (from tick=%d) digest=%s\n", r.checked, startTick, w.StateDigest())
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// replayer re-drives a world from logged loads and edits and compares state
// digests. Idle ticks are not logged, so gaps are stepped with no input.
type replayer struct {
	w          *world.World
	verifyFrom uint64
	toTick     uint64
	checked    uint64
}

func (r *replayer) apply(entries []world.TickLogEntry) (done bool, err error) {
	for _, entry := range entries {
		if entry.Tick < r.w.CurrentTick() {
			continue
		}
		if r.toTick != 0 && entry.Tick > r.toTick {
			return true, nil
		}
		for r.w.CurrentTick() < entry.Tick {
			r.w.StepOnce(nil, nil)
		}

		loads := make([]world.LoadRequest, 0, len(entry.Loaded)+len(entry.Unloaded))
		for _, k := range entry.Unloaded {
			loads = append(loads, world.LoadRequest{Center: world.ChunkKey{CX: k[0], CZ: k[1]}, Unload: true})
		}
		for _, k := range entry.Loaded {
			loads = append(loads, world.LoadRequest{Center: world.ChunkKey{CX: k[0], CZ: k[1]}})
		}
		edits := make([]world.EditRequest, 0, len(entry.Edits))
		for _, e := range entry.Edits {
			edits = append(edits, world.EditRequest{
				SessionID: e.SessionID,
				Pos:       world.Vec3i{X: e.Pos[0], Y: e.Pos[1], Z: e.Pos[2]},
				Block:     e.To,
			})
		}

		tick, digest := r.w.StepOnce(loads, edits)
		if tick != entry.Tick {
			return false, fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
		}
		if tick >= r.verifyFrom && entry.Digest != "" {
			r.checked++
			if digest != entry.Digest {
				return false, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
			}
		}
	}
	return false, nil
}
