package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"voxlight.ai/internal/sim/catalogs"
	"voxlight.ai/internal/sim/light"
)

func flatConfig() WorldConfig {
	return WorldConfig{
		ID:                "test",
		TickRateHz:        100,
		Height:            32,
		Seed:              7,
		BaseHeight:        10,
		RescanUnsupported: true,
	}
}

func newTestWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	w, err := New(cfg, catalogs.Default())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func load(w *World, radius int) {
	w.StepOnce([]LoadRequest{{Center: ChunkKey{}, Radius: radius}}, nil)
}

func edit(t *testing.T, w *World, p Vec3i, name string) {
	t.Helper()
	resp := make(chan EditResult, 1)
	w.StepOnce(nil, []EditRequest{{Pos: p, Block: w.blocks.MustID(name), Resp: resp}})
	if r := <-resp; r.Err != nil {
		t.Fatalf("edit %v -> %s: %v", p, name, r.Err)
	}
}

func sky(w *World, x, y, z int) uint8   { return w.chunks.SkyLight(Vec3i{X: x, Y: y, Z: z}) }
func block(w *World, x, y, z int) uint8 { return w.chunks.BlockLight(Vec3i{X: x, Y: y, Z: z}) }

func TestLoadLightsFlatChunk(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	load(w, 0)

	for y := 10; y < 32; y++ {
		if v := sky(w, 3, y, 5); v != 15 {
			t.Fatalf("sky above ground at y=%d: got %d want 15", y, v)
		}
	}
	for y := 0; y < 10; y++ {
		if v := sky(w, 3, y, 5); v != 0 {
			t.Fatalf("sky below ground at y=%d: got %d want 0", y, v)
		}
	}
	if m := w.Metrics(); m.LoadedChunks != 1 || m.OpsExecuted != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestDiggingLightsShaftAndTunnel(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	load(w, 1)

	edit(t, w, Vec3i{X: 8, Y: 9, Z: 8}, "AIR")
	if v := sky(w, 8, 9, 8); v != 15 {
		t.Fatalf("opened surface voxel: got %d want 15", v)
	}
	edit(t, w, Vec3i{X: 8, Y: 8, Z: 8}, "AIR")
	if v := sky(w, 8, 8, 8); v != 15 {
		t.Fatalf("shaft bottom: got %d want 15", v)
	}
	edit(t, w, Vec3i{X: 9, Y: 8, Z: 8}, "AIR")
	if v := sky(w, 9, 8, 8); v != 14 {
		t.Fatalf("tunnel voxel: got %d want 14", v)
	}
}

func TestSameTickEditsSettleInOrder(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	load(w, 1)

	air := w.blocks.MustID("AIR")
	w.StepOnce(nil, []EditRequest{
		{Pos: Vec3i{X: 8, Y: 9, Z: 8}, Block: air},
		{Pos: Vec3i{X: 8, Y: 8, Z: 8}, Block: air},
		{Pos: Vec3i{X: 9, Y: 8, Z: 8}, Block: air},
	})
	if got := []uint8{sky(w, 8, 9, 8), sky(w, 8, 8, 8), sky(w, 9, 8, 8)}; got[0] != 15 || got[1] != 15 || got[2] != 14 {
		t.Fatalf("chained digs in one tick: got %v want [15 15 14]", got)
	}
}

func TestTorchPlacedAndRemoved(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	load(w, 1)

	edit(t, w, Vec3i{X: 8, Y: 10, Z: 8}, "TORCH")
	if v := block(w, 8, 10, 8); v != 14 {
		t.Fatalf("torch voxel: got %d want 14", v)
	}
	if v := block(w, 8, 11, 8); v != 13 {
		t.Fatalf("above torch: got %d want 13", v)
	}
	if v := block(w, 12, 10, 8); v != 10 {
		t.Fatalf("4 blocks away: got %d want 10", v)
	}
	if v := sky(w, 8, 10, 8); v != 15 {
		t.Fatalf("torch must not shade sky light: got %d", v)
	}

	edit(t, w, Vec3i{X: 8, Y: 10, Z: 8}, "AIR")
	for _, x := range []int{8, 9, 12} {
		if v := block(w, x, 10, 8); v != 0 {
			t.Fatalf("stale block light at x=%d after removal: %d", x, v)
		}
	}
	if m := w.Metrics(); m.Rescans == 0 || m.OpsUnsupported == 0 {
		t.Fatalf("expected the removal to be rescanned: %+v", m)
	}
}

func TestCoveringHoleRemovesSkyLight(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	load(w, 1)

	edit(t, w, Vec3i{X: 8, Y: 9, Z: 8}, "AIR")
	edit(t, w, Vec3i{X: 8, Y: 10, Z: 8}, "STONE")
	if v := sky(w, 8, 9, 8); v != 0 {
		t.Fatalf("covered hole: got %d want 0", v)
	}
	if v := sky(w, 8, 11, 8); v != 15 {
		t.Fatalf("above the cover: got %d want 15", v)
	}
	if v := sky(w, 7, 10, 8); v != 15 {
		t.Fatalf("beside the cover: got %d want 15", v)
	}
}

func TestRescanKeepsLightEnteringFromOutside(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	load(w, 2)

	// A shaft in chunk (2,0) feeds a tunnel that runs back into chunk (1,0).
	edit(t, w, Vec3i{X: 34, Y: 9, Z: 8}, "AIR")
	edit(t, w, Vec3i{X: 34, Y: 8, Z: 8}, "AIR")
	for x := 33; x >= 28; x-- {
		edit(t, w, Vec3i{X: x, Y: 8, Z: 8}, "AIR")
	}
	xs := []int{31, 30, 28}
	want := []uint8{12, 11, 9}
	for i, x := range xs {
		if v := sky(w, x, 8, 8); v != want[i] {
			t.Fatalf("tunnel x=%d before: got %d want %d", x, v, want[i])
		}
	}

	// Shading open air far away rescans chunks (-1..1, -1..1).
	edit(t, w, Vec3i{X: 8, Y: 12, Z: 8}, "STONE")
	if m := w.Metrics(); m.Rescans == 0 {
		t.Fatalf("expected a rescan: %+v", m)
	}
	for i, x := range xs {
		if v := sky(w, x, 8, 8); v != want[i] {
			t.Fatalf("tunnel x=%d after rescan: got %d want %d", x, v, want[i])
		}
	}
	if v := sky(w, 8, 11, 8); v != 14 {
		t.Fatalf("under the new stone: got %d want 14", v)
	}
}

func TestUnsupportedWithoutRescanLeavesLight(t *testing.T) {
	cfg := flatConfig()
	cfg.RescanUnsupported = false
	w := newTestWorld(t, cfg)
	load(w, 1)

	edit(t, w, Vec3i{X: 8, Y: 9, Z: 8}, "AIR")
	edit(t, w, Vec3i{X: 8, Y: 10, Z: 8}, "STONE")
	if v := sky(w, 8, 9, 8); v != 15 {
		t.Fatalf("expected untouched value 15, got %d", v)
	}
	m := w.Metrics()
	if m.OpsUnsupported == 0 || m.Rescans != 0 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestTransparentBlockRaisingTerrainIsRescanned(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	load(w, 1)

	edit(t, w, Vec3i{X: 8, Y: 12, Z: 8}, "GLASS")
	if got := w.chunks.TerrainHeight(8, 8); got != 13 {
		t.Fatalf("terrain height under glass: got %d want 13", got)
	}
	m := w.Metrics()
	if m.OpsUnsupported != 1 || m.Rescans != 1 {
		t.Fatalf("expected one rescanned terrain change: %+v", m)
	}
	for y := 10; y <= 12; y++ {
		if v := sky(w, 8, y, 8); v != 15 {
			t.Fatalf("sky through glass at y=%d: got %d want 15", y, v)
		}
	}

	edit(t, w, Vec3i{X: 8, Y: 12, Z: 8}, "AIR")
	if m := w.Metrics(); m.OpsUnsupported != 2 || m.Rescans != 2 {
		t.Fatalf("removing the glass should rescan again: %+v", m)
	}
}

func TestUnloadDropsQueuedWork(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	tl := &memTickLogger{}
	w.SetTickLogger(tl)
	load(w, 1)

	// Unflushed emitter in chunk (1,0) whose flood would spill into (0,0).
	w.Queue().Enqueue(Vec3i{X: 20, Y: 12, Z: 8}, light.Block, light.Incremental, light.Add, 15)
	resp := make(chan LoadResult, 1)
	w.StepOnce([]LoadRequest{{Center: ChunkKey{CX: 1}, Unload: true, Resp: resp}}, nil)

	r := <-resp
	if len(r.Unloaded) != 1 || r.Unloaded[0] != (ChunkKey{CX: 1}) || len(r.Loaded) != 0 {
		t.Fatalf("unexpected unload result: %+v", r)
	}
	if w.chunks.HasChunk(ChunkKey{CX: 1}) {
		t.Fatalf("chunk (1,0) still resident")
	}
	if v := block(w, 15, 12, 8); v != 0 {
		t.Fatalf("dropped op wrote light into a neighbour: %d", v)
	}
	if w.queue.Len() != 0 {
		t.Fatalf("queue not drained: %d", w.queue.Len())
	}
	if m := w.Metrics(); m.OpsFailed != 0 || m.OpsUnsupported != 0 {
		t.Fatalf("dropped op must not count as an error: %+v", m)
	}
	if last := tl.entries[len(tl.entries)-1]; len(last.Unloaded) != 1 || last.Unloaded[0] != [2]int{1, 0} {
		t.Fatalf("unload not logged: %+v", last)
	}

	w.StepOnce([]LoadRequest{{Center: ChunkKey{CX: 1}}}, nil)
	if v := sky(w, 20, 15, 8); v != 15 {
		t.Fatalf("reloaded chunk not relit: %d", v)
	}
}

func TestEditValidation(t *testing.T) {
	cfg := flatConfig()
	cfg.EditMax = 2
	cfg.EditWindowTicks = 100
	w := newTestWorld(t, cfg)
	load(w, 0)

	stone := w.blocks.MustID("STONE")
	cases := []struct {
		req  EditRequest
		want error
	}{
		{EditRequest{Pos: Vec3i{X: 40, Y: 12, Z: 0}, Block: stone}, ErrChunkNotLoaded},
		{EditRequest{Pos: Vec3i{X: 1, Y: 32, Z: 1}, Block: stone}, ErrOutOfBounds},
		{EditRequest{Pos: Vec3i{X: 1, Y: -1, Z: 1}, Block: stone}, ErrOutOfBounds},
		{EditRequest{Pos: Vec3i{X: 1, Y: 12, Z: 1}, Block: 999}, ErrUnknownBlock},
	}
	for _, tc := range cases {
		tc.req.Resp = make(chan EditResult, 1)
		w.StepOnce(nil, []EditRequest{tc.req})
		if r := <-tc.req.Resp; !errors.Is(r.Err, tc.want) {
			t.Fatalf("%+v: got %v want %v", tc.req.Pos, r.Err, tc.want)
		}
	}

	var reqs []EditRequest
	for i := 0; i < 3; i++ {
		reqs = append(reqs, EditRequest{SessionID: "s1", Pos: Vec3i{X: i, Y: 12, Z: 0}, Block: stone, Resp: make(chan EditResult, 1)})
	}
	w.StepOnce(nil, reqs)
	for i, r := range reqs {
		err := (<-r.Resp).Err
		if i < 2 && err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
		if i == 2 && !errors.Is(err, ErrRateLimited) {
			t.Fatalf("third edit: got %v want rate limit", err)
		}
	}
}

func TestBudgetCarriesWorkAcrossTicks(t *testing.T) {
	cfg := flatConfig()
	cfg.OpsPerTick = 1
	w := newTestWorld(t, cfg)
	load(w, 1)

	if got := w.queue.Len(); got != 8 {
		t.Fatalf("queue after first tick: got %d want 8", got)
	}
	for i := 0; i < 8; i++ {
		w.StepOnce(nil, nil)
	}
	if got := w.queue.Len(); got != 0 {
		t.Fatalf("queue not drained: %d", got)
	}
	if v := sky(w, -10, 15, 20); v != 15 {
		t.Fatalf("neighbour chunk not lit: %d", v)
	}
}

type memTickLogger struct{ entries []TickLogEntry }

func (m *memTickLogger) WriteTick(e TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestTickLoggerRecordsEditsAndLoads(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	tl := &memTickLogger{}
	w.SetTickLogger(tl)

	load(w, 0)
	edit(t, w, Vec3i{X: 2, Y: 10, Z: 2}, "GLOWSTONE")

	if len(tl.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tl.entries))
	}
	first, second := tl.entries[0], tl.entries[1]
	if first.Tick != 0 || len(first.Loaded) != 1 || first.Digest == "" {
		t.Fatalf("unexpected load entry: %+v", first)
	}
	if second.Tick != 1 || len(second.Edits) != 1 || second.Edits[0].To != w.blocks.MustID("GLOWSTONE") {
		t.Fatalf("unexpected edit entry: %+v", second)
	}
	if first.Digest == second.Digest {
		t.Fatalf("digest should change after an edit")
	}
}

func TestRunServesRequests(t *testing.T) {
	w := newTestWorld(t, flatConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()

	lr, err := w.LoadArea(reqCtx, ChunkKey{}, 0)
	if err != nil || len(lr.Loaded) != 1 {
		t.Fatalf("load area: %+v %v", lr, err)
	}
	if _, err := w.SubmitEdit(reqCtx, "s", Vec3i{X: 4, Y: 10, Z: 4}, w.blocks.MustID("LANTERN")); err != nil {
		t.Fatalf("submit edit: %v", err)
	}
	s, err := w.QueryLight(reqCtx, Vec3i{X: 4, Y: 11, Z: 4})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !s.Loaded || s.Sky != 15 || s.Light != 14 {
		t.Fatalf("unexpected sample: %+v", s)
	}
	c, err := w.QueryChunk(reqCtx, ChunkKey{})
	if err != nil || !c.Loaded || len(c.Blocks) != 16*16*32 {
		t.Fatalf("query chunk: loaded=%v blocks=%d err=%v", c.Loaded, len(c.Blocks), err)
	}
	if _, err := w.RequestSnapshot(reqCtx); err == nil {
		t.Fatalf("expected error without snapshot sink")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop")
	}
}
