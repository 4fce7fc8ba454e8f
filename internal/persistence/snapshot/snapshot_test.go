package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots", "42.snap.zst")

	in := SnapshotV1{
		Header:        Header{WorldID: "overworld", Tick: 42},
		Seed:          1337,
		TickRate:      20,
		Height:        64,
		PaletteDigest: "abc",
		Chunks: []ChunkV1{{
			CX: -1, CZ: 3, Height: 64,
			Blocks:     []uint16{1, 2, 3},
			SkyLight:   []byte{0xF0, 0x0F},
			BlockLight: []byte{0x21},
		}},
		PendingOps: []OperationV1{{Seed: [3]int{1, 2, 3}, Channel: 1, Magnitude: 14}},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h.Tick != 42 || h.WorldID != "overworld" || h.Version != Version {
		t.Fatalf("unexpected header: %+v", h)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Seed != 1337 || out.Height != 64 || len(out.Chunks) != 1 {
		t.Fatalf("unexpected snapshot: %+v", out)
	}
	c := out.Chunks[0]
	if c.CX != -1 || c.CZ != 3 || c.Blocks[2] != 3 || c.SkyLight[0] != 0xF0 || c.BlockLight[0] != 0x21 {
		t.Fatalf("chunk mismatch: %+v", c)
	}
	if len(out.PendingOps) != 1 || out.PendingOps[0].Magnitude != 14 {
		t.Fatalf("pending ops mismatch: %+v", out.PendingOps)
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap.zst")); err == nil {
		t.Fatalf("expected error")
	}
}
