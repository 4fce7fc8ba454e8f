package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/catalogs"
	"voxlight.ai/internal/sim/tuning"
	"voxlight.ai/internal/sim/world"
)

// SQLiteIndex is a secondary read model of ticks, edits and snapshots. Writes
// are queued to a single writer goroutine and dropped when it falls behind;
// the JSONL tick logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTicks     atomic.Uint64
	dropSnapshots atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	snapshot snapshotRow
	done     chan struct{}
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Seed       int64
	Height     int
	Chunks     int
	PendingOps int
}

type Stats struct {
	DropTickTotal     uint64
	DropSnapshotTotal uint64
	QueueDepth        int
	QueueCapacity     int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Edit bursts arrive once per tick; leave room for a few seconds of backlog.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			edits INTEGER NOT NULL,
			loaded INTEGER NOT NULL,
			executed INTEGER NOT NULL,
			unsupported INTEGER NOT NULL,
			rescanned INTEGER NOT NULL,
			queue_sky INTEGER NOT NULL,
			queue_block INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS edits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block INTEGER NOT NULL,
			to_block INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_pos_tick ON edits(x, z, y, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_session_tick ON edits(session_id, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			height INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			pending_ops INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		DropTickTotal:     s.dropTicks.Load(),
		DropSnapshotTotal: s.dropSnapshots.Load(),
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTicks.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Seed:       snap.Seed,
		Height:     snap.Height,
		Chunks:     len(snap.Chunks),
		PendingOps: len(snap.PendingOps),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshots.Add(1)
	}
}

// Flush waits until every write queued before the call is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return errors.New("index closed")
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) UpsertCatalogs(blocksJSON []byte, blocks *catalogs.BlockCatalog, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if len(blocksJSON) > 0 {
		rows = append(rows, kv{name: "blocks_defs", digest: blocks.DefsDigest, json: blocksJSON})
	}
	if b, _ := json.Marshal(blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: blocks.PaletteDigest, json: b})
	}
	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type SnapshotRecord struct {
	Tick       uint64
	Path       string
	Chunks     int
	PendingOps int
}

// LatestSnapshot returns the most recent recorded snapshot, if any.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context) (SnapshotRecord, bool, error) {
	var r SnapshotRecord
	var tick int64
	err := s.db.QueryRowContext(ctx,
		`SELECT tick, path, chunks, pending_ops FROM snapshots ORDER BY tick DESC LIMIT 1`,
	).Scan(&tick, &r.Path, &r.Chunks, &r.PendingOps)
	if errors.Is(err, sql.ErrNoRows) {
		return r, false, nil
	}
	if err != nil {
		return r, false, err
	}
	r.Tick = uint64(tick)
	return r, true, nil
}

type EditRow struct {
	Tick      uint64
	SessionID string
	From, To  uint16
}

// EditsAt lists the recorded edits of one voxel, oldest first.
func (s *SQLiteIndex) EditsAt(ctx context.Context, x, y, z int) ([]EditRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, session_id, from_block, to_block FROM edits WHERE x=? AND z=? AND y=? ORDER BY tick, seq`,
		x, z, y)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EditRow
	for rows.Next() {
		var r EditRow
		var tick int64
		if err := rows.Scan(&tick, &r.SessionID, &r.From, &r.To); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,edits,loaded,executed,unsupported,rescanned,queue_sky,queue_block,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertEdit, _ := s.db.Prepare(`INSERT OR REPLACE INTO edits(tick,seq,session_id,x,y,z,from_block,to_block) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,height,chunks,pending_ops) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertEdit, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			t := r.tick
			b, _ := json.Marshal(t)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					int64(t.Tick),
					t.Digest,
					len(t.Edits),
					len(t.Loaded),
					t.Executed,
					t.Unsupported,
					t.Rescanned,
					t.QueueSky,
					t.QueueBlock,
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for i, e := range t.Edits {
				if insertEdit == nil {
					break
				}
				if _, err := tx.Stmt(insertEdit).Exec(
					int64(t.Tick), i, e.SessionID,
					e.Pos[0], e.Pos[1], e.Pos[2],
					int64(e.From), int64(e.To),
				); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					int64(sn.Tick),
					sn.Path,
					sn.Seed,
					sn.Height,
					sn.Chunks,
					sn.PendingOps,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
