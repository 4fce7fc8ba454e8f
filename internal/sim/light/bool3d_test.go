package light

import "testing"

func TestBool3D_RoundTrip(t *testing.T) {
	b := NewBool3D(5, 3, 7, false)
	for y := 0; y < 3; y++ {
		for z := 0; z < 7; z++ {
			for x := 0; x < 5; x++ {
				if b.Get(x, y, z) {
					t.Fatalf("expected default false at (%d,%d,%d)", x, y, z)
				}
				want := (x+y*3+z*5)%3 == 0
				b.Set(x, y, z, want)
			}
		}
	}
	for y := 0; y < 3; y++ {
		for z := 0; z < 7; z++ {
			for x := 0; x < 5; x++ {
				want := (x+y*3+z*5)%3 == 0
				if got := b.Get(x, y, z); got != want {
					t.Fatalf("(%d,%d,%d): got %v want %v", x, y, z, got, want)
				}
			}
		}
	}
}

func TestBool3D_InitialTrue(t *testing.T) {
	b := NewBool3D(9, 9, 9, true)
	if !b.Get(0, 0, 0) || !b.Get(8, 8, 8) || !b.Get(4, 7, 1) {
		t.Fatalf("expected all bits set")
	}
	b.Set(8, 8, 8, false)
	if b.Get(8, 8, 8) {
		t.Fatalf("expected cleared bit")
	}
	if !b.Get(7, 8, 8) {
		t.Fatalf("clearing one bit touched its neighbour")
	}
}

func TestBool3D_OutOfRangePanics(t *testing.T) {
	b := NewBool3D(2, 3, 4, false)
	cases := [][3]int{
		{-1, 0, 0}, {2, 0, 0},
		{0, -1, 0}, {0, 3, 0},
		{0, 0, -1}, {0, 0, 4},
	}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic for %v", c)
				}
			}()
			b.Get(c[0], c[1], c[2])
		}()
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic on set for %v", c)
				}
			}()
			b.Set(c[0], c[1], c[2], true)
		}()
	}
}

func TestBool3D_BadExtentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewBool3D(0, 1, 1, false)
}
