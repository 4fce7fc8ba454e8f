package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strings"
	"time"

	"voxlight.ai/internal/persistence/indexdb"
	"voxlight.ai/internal/sim/world"
	"voxlight.ai/internal/transport/ws"
)

type httpOptions struct {
	AdminHTTP bool
	PprofHTTP bool
}

func newMux(w *world.World, idx *indexdb.SQLiteIndex, opts httpOptions, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeWorldMetrics(rw, w.ID(), w.Metrics())
		if idx != nil {
			writeIndexMetrics(rw, w.ID(), idx.Stats())
		}
	})

	if opts.AdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string             `json:"world_id"`
				Tick    uint64             `json:"tick"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				WorldID: w.ID(),
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			info, err := w.RequestSnapshot(ctx)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": info.Tick, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": info.Tick, "chunks": info.Chunks})
		})
		if idx != nil {
			mux.HandleFunc("/admin/v1/edits", func(rw http.ResponseWriter, r *http.Request) {
				if !isLoopbackRemote(r.RemoteAddr) {
					http.Error(rw, "forbidden", http.StatusForbidden)
					return
				}
				var x, y, z int
				if _, err := fmt.Sscanf(r.URL.Query().Get("pos"), "%d,%d,%d", &x, &y, &z); err != nil {
					http.Error(rw, "pos must be x,y,z", http.StatusBadRequest)
					return
				}
				rows, err := idx.EditsAt(r.Context(), x, y, z)
				if err != nil {
					http.Error(rw, err.Error(), http.StatusInternalServerError)
					return
				}
				rw.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(rw).Encode(rows)
			})
		}
	} else {
		logger.Printf("admin endpoints disabled (VL_ENABLE_ADMIN_HTTP=false)")
	}
	if opts.PprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())
	return mux
}

// Minimal Prometheus exposition format.
func writeWorldMetrics(rw http.ResponseWriter, worldID string, m world.WorldMetrics) {
	fmt.Fprintf(rw, "# HELP voxlight_world_tick Last completed world tick.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_world_tick gauge\n")
	fmt.Fprintf(rw, "voxlight_world_tick{world=%q} %d\n", worldID, m.Tick)

	fmt.Fprintf(rw, "# HELP voxlight_world_loaded_chunks Loaded chunk count.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_world_loaded_chunks gauge\n")
	fmt.Fprintf(rw, "voxlight_world_loaded_chunks{world=%q} %d\n", worldID, m.LoadedChunks)

	fmt.Fprintf(rw, "# HELP voxlight_world_queue_depth Pending work per queue.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "voxlight_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "sky", m.QueueDepths.Sky)
	fmt.Fprintf(rw, "voxlight_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "block", m.QueueDepths.Block)
	fmt.Fprintf(rw, "voxlight_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "edits", m.QueueDepths.Edits)
	fmt.Fprintf(rw, "voxlight_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "loads", m.QueueDepths.Loads)

	fmt.Fprintf(rw, "# HELP voxlight_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_world_step_ms gauge\n")
	fmt.Fprintf(rw, "voxlight_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(rw, "# HELP voxlight_light_ops_total Lighting operations dequeued, by outcome.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_light_ops_total counter\n")
	fmt.Fprintf(rw, "voxlight_light_ops_total{world=%q,result=%q} %d\n", worldID, "executed", m.OpsExecuted)
	fmt.Fprintf(rw, "voxlight_light_ops_total{world=%q,result=%q} %d\n", worldID, "failed", m.OpsFailed)
	fmt.Fprintf(rw, "voxlight_light_ops_total{world=%q,result=%q} %d\n", worldID, "unsupported", m.OpsUnsupported)

	fmt.Fprintf(rw, "# HELP voxlight_light_rescans_total Chunk relights triggered by unsupported operations.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_light_rescans_total counter\n")
	fmt.Fprintf(rw, "voxlight_light_rescans_total{world=%q} %d\n", worldID, m.Rescans)

	fmt.Fprintf(rw, "# HELP voxlight_edits_total Block edits, by outcome.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_edits_total counter\n")
	fmt.Fprintf(rw, "voxlight_edits_total{world=%q,result=%q} %d\n", worldID, "applied", m.Edits)
	fmt.Fprintf(rw, "voxlight_edits_total{world=%q,result=%q} %d\n", worldID, "rejected", m.EditsRejected)
}

func writeIndexMetrics(rw http.ResponseWriter, worldID string, s indexdb.Stats) {
	fmt.Fprintf(rw, "# HELP voxlight_index_queue_depth Index writer queue depth.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "voxlight_index_queue_depth{world=%q} %d\n", worldID, s.QueueDepth)

	fmt.Fprintf(rw, "# HELP voxlight_index_dropped_total Index records dropped under backpressure.\n")
	fmt.Fprintf(rw, "# TYPE voxlight_index_dropped_total counter\n")
	fmt.Fprintf(rw, "voxlight_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", s.DropTickTotal)
	fmt.Fprintf(rw, "voxlight_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", s.DropSnapshotTotal)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
