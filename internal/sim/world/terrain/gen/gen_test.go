package gen

import "testing"

func testGen(amp int) *Generator {
	return New(WorldGen{
		Seed: 42, Height: 64, BaseHeight: 20, Amplitude: amp,
		Air: 0, Stone: 1, Dirt: 2, Grass: 3, Log: 4, Leaves: 5, Glowstone: 6,
	})
}

func TestFlatWorldHeight(t *testing.T) {
	g := testGen(0)
	for x := -40; x < 40; x += 7 {
		if h := g.HeightAt(x, -x); h != 20 {
			t.Fatalf("flat height at %d: %d", x, h)
		}
	}
}

func TestNoiseHeightDeterministicAndBounded(t *testing.T) {
	a, b := testGen(10), testGen(10)
	varied := false
	for x := -100; x < 100; x += 3 {
		ha, hb := a.HeightAt(x, x*2), b.HeightAt(x, x*2)
		if ha != hb {
			t.Fatalf("non-deterministic height at %d: %d vs %d", x, ha, hb)
		}
		if ha < 10 || ha > 30 {
			t.Fatalf("height %d outside base+-amplitude", ha)
		}
		if ha != 20 {
			varied = true
		}
	}
	if !varied {
		t.Fatalf("noise produced a flat world")
	}
}

func TestColumnLayers(t *testing.T) {
	g := testGen(0)
	want := map[int]uint16{19: 3, 18: 2, 16: 2, 15: 1, 0: 1, 20: 0, 40: 0}
	for y, b := range want {
		if got := g.Column(y, 20); got != b {
			t.Fatalf("y=%d: got %d want %d", y, got, b)
		}
	}
}
