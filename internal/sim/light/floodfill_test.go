package light

import (
	"math/rand"
	"testing"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestAttenuationAddsOpacityToStepCost(t *testing.T) {
	for _, c := range []struct{ opacity, want uint8 }{{0, 1}, {1, 2}, {2, 3}, {15, 16}} {
		if got := Attenuation(c.opacity); got != c.want {
			t.Fatalf("opacity %d: got %d want %d", c.opacity, got, c.want)
		}
	}
}

func TestFloodFill_OpenAirAttenuatesOnePerStep(t *testing.T) {
	d := newMemDim(64, ChunkPos{0, 0})
	reg := newTestRegistry()
	seed := Vec3i{X: 8, Y: 30, Z: 8}

	FloodFill(d, reg, BlockAccessor(d), seed, 15)

	for dx := -7; dx <= 7; dx++ {
		for dy := -8; dy <= 8; dy++ {
			for dz := -7; dz <= 7; dz++ {
				p := Vec3i{X: seed.X + dx, Y: seed.Y + dy, Z: seed.Z + dz}
				if !d.resident(p) {
					continue
				}
				dist := abs(dx) + abs(dy) + abs(dz)
				want := 15 - dist
				if want < 0 {
					want = 0
				}
				if got := int(d.BlockLight(p)); got != want {
					t.Fatalf("%v: got %d want %d", p, got, want)
				}
			}
		}
	}
}

func TestFloodFill_AttenuationThroughOpacity(t *testing.T) {
	d := newMemDim(32, ChunkPos{0, 0})
	reg := newTestRegistry()
	seed := Vec3i{X: 4, Y: 10, Z: 4}
	leaf := Vec3i{X: 5, Y: 10, Z: 4}
	d.SetBlock(leaf, testLeaves)

	FloodFill(d, reg, BlockAccessor(d), seed, 12)

	if got := d.BlockLight(leaf); got != 12-Attenuation(1) {
		t.Fatalf("leaf: got %d want %d", got, 12-Attenuation(1))
	}
	// Through the leaf (10-1) beats going around it (12-4).
	behind := Vec3i{X: 6, Y: 10, Z: 4}
	if got := d.BlockLight(behind); got != 9 {
		t.Fatalf("behind leaf: got %d want 9", got)
	}
	if Attenuation(0) != 1 {
		t.Fatalf("air step must cost exactly 1")
	}
}

func TestFloodFill_StopsAtOpaque(t *testing.T) {
	d := newMemDim(32, ChunkPos{0, 0})
	reg := newTestRegistry()
	// Seal the seed inside a stone cell.
	seed := Vec3i{X: 8, Y: 8, Z: 8}
	for _, f := range faces {
		d.SetBlock(seed.Add(f), testStone)
	}
	FloodFill(d, reg, BlockAccessor(d), seed, 15)
	for _, f := range faces {
		if got := d.BlockLight(seed.Add(f)); got != 0 {
			t.Fatalf("stone %v lit to %d", seed.Add(f), got)
		}
	}
	if got := d.BlockLight(Vec3i{X: 10, Y: 8, Z: 8}); got != 0 {
		t.Fatalf("light leaked through stone: %d", got)
	}
}

func TestFloodFill_NeverLowers(t *testing.T) {
	d := newMemDim(32, ChunkPos{0, 0}, ChunkPos{1, 0})
	reg := newTestRegistry()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 4000; i++ {
		p := Vec3i{X: rng.Intn(32), Y: rng.Intn(32), Z: rng.Intn(16)}
		if rng.Intn(6) == 0 {
			d.SetBlock(p, testLeaves)
		}
		if rng.Intn(8) == 0 {
			d.SetBlock(p, testStone)
		}
		d.SetBlockLight(p, uint8(rng.Intn(16)))
	}
	before := copyLight(d.blk)

	FloodFill(d, reg, BlockAccessor(d), Vec3i{X: 15, Y: 16, Z: 8}, 13)

	for p, v := range before {
		if d.blk[p] < v {
			t.Fatalf("%v lowered from %d to %d", p, v, d.blk[p])
		}
	}
}

func TestFloodFill_Idempotent(t *testing.T) {
	d := newMemDim(32, ChunkPos{0, 0})
	reg := newTestRegistry()
	d.fill(ChunkPos{0, 0}, 0, 4, testStone)
	d.SetBlock(Vec3i{X: 3, Y: 6, Z: 3}, testLeaves)
	seed := Vec3i{X: 5, Y: 5, Z: 5}

	first := FloodFill(d, reg, BlockAccessor(d), seed, 14)
	if first.Raised == 0 {
		t.Fatalf("expected first flood to raise values")
	}
	converged := copyLight(d.blk)
	second := FloodFill(d, reg, BlockAccessor(d), seed, 14)
	if second.Raised != 0 {
		t.Fatalf("second flood raised %d voxels", second.Raised)
	}
	if len(converged) != len(d.blk) {
		t.Fatalf("light map size changed: %d -> %d", len(converged), len(d.blk))
	}
	for p, v := range converged {
		if d.blk[p] != v {
			t.Fatalf("%v changed from %d to %d", p, v, d.blk[p])
		}
	}
}

func TestFloodFill_ConvergesToInvariant(t *testing.T) {
	d := newMemDim(32, ChunkPos{0, 0})
	reg := newTestRegistry()
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 600; i++ {
		p := Vec3i{X: rng.Intn(16), Y: rng.Intn(32), Z: rng.Intn(16)}
		switch rng.Intn(3) {
		case 0:
			d.SetBlock(p, testStone)
		case 1:
			d.SetBlock(p, testLeaves)
		}
	}
	seed := Vec3i{X: 8, Y: 16, Z: 8}
	d.SetBlock(seed, testLamp)
	FloodFill(d, reg, BlockAccessor(d), seed, 15)

	for y := 0; y < 32; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				v := Vec3i{X: x, Y: y, Z: z}
				cost := int(Attenuation(reg.Opacity(d.Block(v))))
				for _, f := range faces {
					n := v.Add(f)
					if !d.resident(n) {
						continue
					}
					if want := int(d.BlockLight(n)) - cost; int(d.BlockLight(v)) < want {
						t.Fatalf("%v=%d darker than neighbour %v=%d allows", v, d.BlockLight(v), n, d.BlockLight(n))
					}
				}
			}
		}
	}
}

func TestFloodFill_DoesNotEnterUnloadedChunks(t *testing.T) {
	d := newMemDim(32, ChunkPos{0, 0})
	reg := newTestRegistry()
	d.chunks[ChunkPos{1, 0}] = false
	FloodFill(d, reg, BlockAccessor(d), Vec3i{X: 15, Y: 10, Z: 8}, 15)
	for p := range d.blk {
		if ChunkOf(p) != (ChunkPos{0, 0}) {
			t.Fatalf("wrote light into unloaded chunk at %v", p)
		}
	}
	if got := d.BlockLight(Vec3i{X: 15, Y: 10, Z: 8}); got != 15 {
		t.Fatalf("seed: got %d want 15", got)
	}
}

func TestFloodFill_ClippedToVerticalRange(t *testing.T) {
	d := newMemDim(8, ChunkPos{0, 0})
	reg := newTestRegistry()
	// Must not panic on the visited set when the box crosses y=0 and y=height.
	FloodFill(d, reg, SkyAccessor(d), Vec3i{X: 8, Y: 0, Z: 8}, 15)
	FloodFill(d, reg, SkyAccessor(d), Vec3i{X: 8, Y: 7, Z: 8}, 15)
	if got := d.SkyLight(Vec3i{X: 8, Y: 7, Z: 8}); got != 15 {
		t.Fatalf("got %d want 15", got)
	}
	if got := d.SkyLight(Vec3i{X: 8, Y: 0, Z: 12}); got != 11 {
		t.Fatalf("got %d want 11", got)
	}
	st := FloodFill(d, reg, SkyAccessor(d), Vec3i{X: 8, Y: 8, Z: 8}, 15)
	if st.Expanded != 0 {
		t.Fatalf("seed above the world expanded %d voxels", st.Expanded)
	}
}

func TestFloodFill_ZeroLevelIsNoop(t *testing.T) {
	d := newMemDim(16, ChunkPos{0, 0})
	st := FloodFill(d, newTestRegistry(), SkyAccessor(d), Vec3i{X: 1, Y: 1, Z: 1}, 0)
	if st.Expanded != 0 || st.Raised != 0 || len(d.sky) != 0 {
		t.Fatalf("zero-level flood mutated state: %+v", st)
	}
}
