package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed       int64 `json:"seed"`
	TickRate   int   `json:"tick_rate_hz"`
	Height     int   `json:"height"`
	BaseHeight int   `json:"base_height"`
	Amplitude  int   `json:"amplitude"`

	NoiseScale   float64 `json:"noise_scale"`
	TreePermille int     `json:"tree_permille"`
	LampPermille int     `json:"lamp_permille"`

	// PaletteDigest pins the block palette the chunk ids refer to.
	PaletteDigest string `json:"palette_digest"`

	Chunks []ChunkV1 `json:"chunks"`

	// Lighting work still queued when the snapshot was taken.
	PendingOps []OperationV1 `json:"pending_ops,omitempty"`
}

type ChunkV1 struct {
	CX         int      `json:"cx"`
	CZ         int      `json:"cz"`
	Height     int      `json:"height"`
	Blocks     []uint16 `json:"blocks"`
	SkyLight   []byte   `json:"sky_light"`   // packed nibbles
	BlockLight []byte   `json:"block_light"` // packed nibbles
}

type OperationV1 struct {
	Seed      [3]int `json:"seed"`
	Channel   uint8  `json:"channel"`
	Kind      uint8  `json:"kind"`
	Mode      uint8  `json:"mode"`
	Magnitude uint8  `json:"magnitude"`
}

// WriteSnapshot writes a JSON header line followed by the gob-encoded
// snapshot, all inside one zstd stream. The file is written to a temp name
// and renamed into place.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := writeFile(tmp, snap); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeFile(path string, snap SnapshotV1) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is for tooling; gob carries the header too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}
