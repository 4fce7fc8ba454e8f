package light

import "fmt"

// Bool3D is a dense bit field over a local box [0,xs) x [0,ys) x [0,zs).
// It is the per-call visited set of the flood fill and carries no state
// between calls.
type Bool3D struct {
	xs, ys, zs int
	bits       []uint64
}

func NewBool3D(xs, ys, zs int, initial bool) *Bool3D {
	if xs <= 0 || ys <= 0 || zs <= 0 {
		panic(fmt.Sprintf("NewBool3D() called with non-positive extent %dx%dx%d", xs, ys, zs))
	}
	n := xs * ys * zs
	b := &Bool3D{
		xs:   xs,
		ys:   ys,
		zs:   zs,
		bits: make([]uint64, (n+63)>>6),
	}
	if initial {
		for i := range b.bits {
			b.bits[i] = ^uint64(0)
		}
	}
	return b
}

func (b *Bool3D) Size() (xs, ys, zs int) {
	return b.xs, b.ys, b.zs
}

func (b *Bool3D) index(x, y, z int) int {
	if x < 0 || x >= b.xs || y < 0 || y >= b.ys || z < 0 || z >= b.zs {
		panic(fmt.Sprintf("Bool3D index (%d, %d, %d) out of range %dx%dx%d", x, y, z, b.xs, b.ys, b.zs))
	}
	return (y*b.zs+z)*b.xs + x
}

func (b *Bool3D) Get(x, y, z int) bool {
	i := b.index(x, y, z)
	return b.bits[i>>6]&(1<<(i&63)) != 0
}

func (b *Bool3D) Set(x, y, z int, v bool) {
	i := b.index(x, y, z)
	if v {
		b.bits[i>>6] |= 1 << (i & 63)
	} else {
		b.bits[i>>6] &^= 1 << (i & 63)
	}
}
