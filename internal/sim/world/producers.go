package world

import (
	"sort"

	"voxlight.ai/internal/sim/light"
)

// enqueueEditLighting emits the lighting consequences of replacing prev with
// next at p. heightChanged reports whether the column's terrain height moved.
// An edit that moves the height without changing opacity, such as glass laid
// on open air, emits a sky TerrainChanged, which the overworld lighter
// answers with a rescan.
func (w *World) enqueueEditLighting(p Vec3i, prev, next uint16, heightChanged bool) {
	q := w.queue
	oldOp, newOp := w.blocks.Opacity(prev), w.blocks.Opacity(next)
	oldEm, newEm := w.blocks.Emission(prev), w.blocks.Emission(next)

	switch {
	case newOp > oldOp:
		q.Enqueue(p, light.Sky, light.Incremental, light.Subtract, int(w.chunks.SkyLight(p)))
		q.Enqueue(p, light.Block, light.Incremental, light.Subtract, int(w.chunks.BlockLight(p)))
	case newOp < oldOp:
		// An exposed seed floods at full sky intensity regardless of magnitude.
		q.Enqueue(p, light.Sky, light.Incremental, light.Add, w.inflow(p, newOp, w.chunks.SkyLight))
		if m := w.inflow(p, newOp, w.chunks.BlockLight); m > 0 {
			q.Enqueue(p, light.Block, light.Incremental, light.Add, m)
		}
	case heightChanged:
		q.Enqueue(p, light.Sky, light.Incremental, light.TerrainChanged, int(w.chunks.SkyLight(p)))
	}

	if oldEm > newEm {
		q.Enqueue(p, light.Block, light.Incremental, light.Subtract, int(oldEm))
	}
	if newEm > oldEm {
		q.Enqueue(p, light.Block, light.Incremental, light.Add, int(newEm))
	}
}

// inflow is the brightest value a face neighbour can pass into p once p has
// the given opacity.
func (w *World) inflow(p Vec3i, opacity uint8, get func(Vec3i) uint8) int {
	cost := int(light.Attenuation(opacity))
	best := 0
	for _, n := range p.Neighbors() {
		if v := int(get(n)) - cost; v > best {
			best = v
		}
	}
	return best
}

// enqueueChunkLighting schedules the full lighting pass for freshly loaded
// chunks. Floods are pushed before the Initial scans: the queue is LIFO, so
// every scan runs before a flood can spill into a chunk it has not lit yet.
func (w *World) enqueueChunkLighting(keys []ChunkKey) {
	if len(keys) == 0 {
		return
	}
	cols := map[[2]int]struct{}{}
	for _, k := range keys {
		w.collectSkyEdges(k, cols)
		for _, e := range w.chunks.Emitters(k, w.blocks.Emission) {
			w.queue.Enqueue(e.Pos, light.Block, light.Incremental, light.Add, int(e.Level))
		}
	}
	w.enqueueSkyEdges(cols)
	for _, k := range keys {
		w.queue.Enqueue(k.Origin(), light.Sky, light.Initial, light.Add, int(light.MaxLight))
	}
}

// collectSkyEdges adds every resident column of the chunk and its one-column
// ring that sits below a horizontal neighbour. Those are the only columns
// whose sky light can spread sideways.
func (w *World) collectSkyEdges(k ChunkKey, cols map[[2]int]struct{}) {
	o := k.Origin()
	height := w.chunks.Height()
	for z := o.Z - 1; z <= o.Z+light.ChunkSize; z++ {
		for x := o.X - 1; x <= o.X+light.ChunkSize; x++ {
			if !w.chunks.HasChunk(light.ChunkOf(Vec3i{X: x, Z: z})) {
				continue
			}
			h := w.chunks.TerrainHeight(x, z)
			if h >= height {
				continue
			}
			if w.chunks.TerrainHeight(x+1, z) > h || w.chunks.TerrainHeight(x-1, z) > h ||
				w.chunks.TerrainHeight(x, z+1) > h || w.chunks.TerrainHeight(x, z-1) > h {
				cols[[2]int{x, z}] = struct{}{}
			}
		}
	}
}

func (w *World) enqueueSkyEdges(cols map[[2]int]struct{}) {
	sorted := make([][2]int, 0, len(cols))
	for c := range cols {
		sorted = append(sorted, c)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][1] != sorted[j][1] {
			return sorted[i][1] < sorted[j][1]
		}
		return sorted[i][0] < sorted[j][0]
	})
	for _, c := range sorted {
		p := Vec3i{X: c[0], Y: w.chunks.TerrainHeight(c[0], c[1]), Z: c[1]}
		w.queue.Enqueue(p, light.Sky, light.Incremental, light.Add, int(light.MaxLight))
	}
}
