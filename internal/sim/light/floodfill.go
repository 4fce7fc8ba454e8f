package light

import "github.com/gammazero/deque"

// Attenuation is the light lost stepping into a voxel of the given opacity.
// A step always costs one level; an occupied voxel additionally absorbs its
// opacity. This is 1+opacity, not max(1, opacity): water (opacity 2) costs 3
// per step and leaves cost 2, which is what makes light under a column of
// alternating leaves and air fall 15, 13, 12, 10.
func Attenuation(opacity uint8) uint8 {
	return 1 + opacity
}

// FloodStats reports the work done by one FloodFill call.
type FloodStats struct {
	Expanded int
	Raised   int
}

type box struct {
	min, max Vec3i // inclusive
}

func (b box) contains(p Vec3i) bool {
	return p.X >= b.min.X && p.X <= b.max.X &&
		p.Y >= b.min.Y && p.Y <= b.max.Y &&
		p.Z >= b.min.Z && p.Z <= b.max.Z
}

// FloodFill raises the channel behind acc outward from seed at the given
// level. Values are only ever raised. The search is confined to the box of
// half-width level-1 around seed, clipped to the world's vertical range, and
// each voxel in it is expanded at most once.
func FloodFill(dim Dimension, reg Registry, acc Accessor, seed Vec3i, level uint8) FloodStats {
	var st FloodStats
	if level == 0 {
		return st
	}
	if level > MaxLight {
		level = MaxLight
	}
	height := dim.Height()
	if seed.Y < 0 || seed.Y >= height {
		return st
	}

	r := int(level) - 1
	b := box{
		min: Vec3i{X: seed.X - r, Y: seed.Y - r, Z: seed.Z - r},
		max: Vec3i{X: seed.X + r, Y: seed.Y + r, Z: seed.Z + r},
	}
	if b.min.Y < 0 {
		b.min.Y = 0
	}
	if b.max.Y > height-1 {
		b.max.Y = height - 1
	}
	visited := NewBool3D(b.max.X-b.min.X+1, b.max.Y-b.min.Y+1, b.max.Z-b.min.Z+1, false)
	local := func(p Vec3i) (int, int, int) {
		return p.X - b.min.X, p.Y - b.min.Y, p.Z - b.min.Z
	}

	resident := map[ChunkPos]bool{}
	loaded := func(p Vec3i) bool {
		cp := ChunkOf(p)
		ok, seen := resident[cp]
		if !seen {
			ok = dim.HasChunk(cp)
			resident[cp] = ok
		}
		return ok
	}
	if !loaded(seed) {
		return st
	}

	if acc.Get(seed) < level {
		acc.Set(seed, level)
		st.Raised++
	}

	// Frontier bucketed by the value a voxel was pushed with; brightest first,
	// so a voxel is expanded only once it holds the best value this call can
	// give it.
	var buckets [MaxLight + 1]deque.Deque[Vec3i]
	top := int(acc.Get(seed))
	buckets[top].PushBack(seed)

	for top > 0 {
		if buckets[top].Len() == 0 {
			top--
			continue
		}
		v := buckets[top].PopFront()
		x, y, z := local(v)
		if visited.Get(x, y, z) {
			continue
		}
		visited.Set(x, y, z, true)
		st.Expanded++

		for _, d := range faces {
			n := v.Add(d)
			if !b.contains(n) || !loaded(n) {
				continue
			}
			nx, ny, nz := local(n)
			if visited.Get(nx, ny, nz) {
				continue
			}
			// Every direction starts from v's own stored value.
			cur := acc.Get(v)
			cost := Attenuation(reg.Opacity(dim.Block(n)))
			if cur <= cost {
				continue
			}
			cand := cur - cost
			if cand <= acc.Get(n) {
				continue
			}
			acc.Set(n, cand)
			st.Raised++
			if int(cand) > top {
				top = int(cand)
			}
			buckets[cand].PushBack(n)
		}
	}
	return st
}
