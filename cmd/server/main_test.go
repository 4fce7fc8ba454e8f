package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voxlight.ai/internal/persistence/indexdb"
	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/catalogs"
	"voxlight.ai/internal/sim/world"
)

func testWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.WorldConfig{ID: "w1", TickRateHz: 50, Height: 32, BaseHeight: 10, Seed: 5}, catalogs.Default())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if got := latestSnapshot(dir); got != "" {
		t.Fatalf("expected none, got %q", got)
	}
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"90.snap.zst", "1200.snap.zst", "300.snap.zst", "junk.snap.zst", "1500.tmp"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := latestSnapshot(dir); filepath.Base(got) != "1200.snap.zst" {
		t.Fatalf("latest: got %q", got)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", in, got, want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := testWorld(t)
	w.StepOnce([]world.LoadRequest{{Radius: 0}}, nil)

	idx, err := indexdb.OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	mux := newMux(w, idx, httpOptions{}, log.New(io.Discard, "", 0))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`voxlight_world_loaded_chunks{world="w1"} 1`,
		`voxlight_light_ops_total{world="w1",result="executed"}`,
		`voxlight_index_queue_depth{world="w1"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("admin endpoint should be disabled, got %d", rec.Code)
	}
}

func TestAdminSnapshotWritesFile(t *testing.T) {
	w := testWorld(t)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapCh := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(snapCh)
	go runSnapshotWriter(ctx, dir, snapCh, nil, log.New(io.Discard, "", 0))
	go func() { _ = w.Run(ctx) }()

	lctx, lcancel := context.WithTimeout(ctx, 5*time.Second)
	defer lcancel()
	if _, err := w.LoadArea(lctx, world.ChunkKey{}, 0); err != nil {
		t.Fatalf("load: %v", err)
	}

	mux := newMux(w, nil, httpOptions{AdminHTTP: true}, log.New(io.Discard, "", 0))
	req := httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OK     bool   `json:"ok"`
		Tick   uint64 `json:"tick"`
		Chunks int    `json:"chunks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.OK || resp.Chunks != 1 {
		t.Fatalf("unexpected response %+v err=%v", resp, err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for latestSnapshot(dir) == "" {
		if time.Now().After(deadline) {
			t.Fatalf("snapshot file not written")
		}
		time.Sleep(10 * time.Millisecond)
	}
	snap, err := snapshot.ReadSnapshot(latestSnapshot(dir))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Header.WorldID != "w1" || len(snap.Chunks) != 1 {
		t.Fatalf("unexpected snapshot header=%+v chunks=%d", snap.Header, len(snap.Chunks))
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "10.1.2.3:1234"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote admin: got %d want 403", rec.Code)
	}
}
