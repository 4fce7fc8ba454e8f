package world

import (
	"voxlight.ai/internal/sim/light"
)

type rescanTarget struct {
	key ChunkKey
	ch  light.Channel
}

// rescan relights the neighbourhood of every chunk named by an unsupported
// operation, once per chunk and channel. Light never travels further than
// one chunk, so clearing the 3x3 neighbourhood removes every value the
// changed voxel could have contributed. It returns the number of rescans.
func (w *World) rescan(ops []light.Operation) int {
	seen := map[rescanTarget]bool{}
	n := 0
	for _, op := range ops {
		t := rescanTarget{key: light.ChunkOf(op.Seed), ch: op.Channel}
		if seen[t] || !w.chunks.HasChunk(t.key) {
			continue
		}
		seen[t] = true
		if t.ch == light.Sky {
			w.rescanSky(t.key)
		} else {
			w.rescanBlock(t.key)
		}
		n++
	}
	if n > 0 {
		w.logger.Printf("lighting: rescanned %d chunk channels for %d unsupported ops", n, len(ops))
	}
	return n
}

// rescanSky clears and rescans sky light around k. Sideways spread is
// restored from the edge columns of the cleared area and its outer ring, and
// light that entered the area under cover is carried back in from the voxels
// bordering it.
func (w *World) rescanSky(k ChunkKey) {
	area := w.residentAround(k, 1)
	cols := map[[2]int]struct{}{}
	for _, c := range area {
		w.chunks.ResetLight(c, light.Sky)
		w.collectSkyEdges(c, cols)
	}
	for _, c := range area {
		op := light.NewOperation(c.Origin(), light.Sky, light.Initial, light.Add, int(light.MaxLight))
		if err := w.lighter.Execute(op); err != nil {
			w.logger.Printf("lighting: initial scan %v: %v", c, err)
		}
	}
	w.enqueueSkyEdges(cols)
	w.enqueueSkyInflow(area)
}

// enqueueSkyInflow seeds every covered voxel just outside the cleared area
// that still holds enough sky light to pass some into it. Those voxels sit at
// least a chunk away from the changed voxel, so their values are still valid.
func (w *World) enqueueSkyInflow(area []ChunkKey) {
	cleared := make(map[ChunkKey]bool, len(area))
	for _, c := range area {
		cleared[c] = true
	}
	for _, c := range area {
		for _, col := range w.borderColumns(c, cleared) {
			top := w.chunks.TerrainHeight(col[0], col[1])
			for y := 0; y < top; y++ {
				p := Vec3i{X: col[0], Y: y, Z: col[1]}
				if v := w.chunks.SkyLight(p); v > 1 {
					w.queue.Enqueue(p, light.Sky, light.Incremental, light.Add, int(v))
				}
			}
		}
	}
}

// borderColumns lists the columns of resident chunks outside cleared that
// touch a side of c.
func (w *World) borderColumns(c ChunkKey, cleared map[ChunkKey]bool) [][2]int {
	o := c.Origin()
	sides := []struct {
		n      ChunkKey
		x, z   int
		dx, dz int
	}{
		{ChunkKey{CX: c.CX - 1, CZ: c.CZ}, o.X - 1, o.Z, 0, 1},
		{ChunkKey{CX: c.CX + 1, CZ: c.CZ}, o.X + light.ChunkSize, o.Z, 0, 1},
		{ChunkKey{CX: c.CX, CZ: c.CZ - 1}, o.X, o.Z - 1, 1, 0},
		{ChunkKey{CX: c.CX, CZ: c.CZ + 1}, o.X, o.Z + light.ChunkSize, 1, 0},
	}
	var out [][2]int
	for _, s := range sides {
		if cleared[s.n] || !w.chunks.HasChunk(s.n) {
			continue
		}
		for i := 0; i < light.ChunkSize; i++ {
			out = append(out, [2]int{s.x + i*s.dx, s.z + i*s.dz})
		}
	}
	return out
}

// rescanBlock clears block light around k and re-emits every emitter close
// enough to reach the cleared area.
func (w *World) rescanBlock(k ChunkKey) {
	for _, c := range w.residentAround(k, 1) {
		w.chunks.ResetLight(c, light.Block)
	}
	for _, c := range w.residentAround(k, 2) {
		for _, e := range w.chunks.Emitters(c, w.blocks.Emission) {
			w.queue.Enqueue(e.Pos, light.Block, light.Incremental, light.Add, int(e.Level))
		}
	}
}

func (w *World) residentAround(k ChunkKey, r int) []ChunkKey {
	var out []ChunkKey
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			c := ChunkKey{CX: k.CX + dx, CZ: k.CZ + dz}
			if w.chunks.HasChunk(c) {
				out = append(out, c)
			}
		}
	}
	return out
}
