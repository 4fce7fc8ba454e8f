package light

import "fmt"

// Overworld is the dimension lighter for an open-sky world: sky light falls
// from the top of every column.
type Overworld struct {
	dim Dimension
	reg Registry
}

var _ DimensionLighter = (*Overworld)(nil)

func NewOverworld(dim Dimension, reg Registry) *Overworld {
	return &Overworld{dim: dim, reg: reg}
}

// Initial scans every column of the chunk downward from the top at full
// intensity, subtracting each voxel's opacity. Voxels below the point where
// the intensity reaches zero are left untouched.
func (o *Overworld) Initial(cp ChunkPos) error {
	origin := cp.Origin()
	top := o.dim.Height() - 1
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			intensity := int(MaxLight)
			for y := top; y >= 0 && intensity > 0; y-- {
				p := Vec3i{X: origin.X + x, Y: y, Z: origin.Z + z}
				intensity -= int(o.reg.Opacity(o.dim.Block(p)))
				if intensity < 0 {
					intensity = 0
				}
				o.dim.SetSkyLight(p, uint8(intensity))
			}
		}
	}
	return nil
}

// AddSky relights after terrain was removed. When the seed's column is open
// to the sky, every voxel of the exposed run (from the column's terrain
// height up to the surrounding terrain ceiling) is flooded at full intensity,
// so a freshly dug shaft is lit along its whole length. Otherwise a single
// flood at the operation's magnitude is run at the seed.
func (o *Overworld) AddSky(op Operation) error {
	s := op.Seed
	floor := o.dim.TerrainHeight(s.X, s.Z)
	if s.Y < floor {
		FloodFill(o.dim, o.reg, SkyAccessor(o.dim), s, op.Magnitude)
		return nil
	}

	ceiling := s.Y
	for _, d := range faces {
		if d.Y != 0 {
			continue
		}
		if h := o.dim.TerrainHeight(s.X+d.X, s.Z+d.Z); h > ceiling {
			ceiling = h
		}
	}
	if top := o.dim.Height() - 1; ceiling > top {
		ceiling = top
	}
	acc := SkyAccessor(o.dim)
	for y := floor; y <= ceiling; y++ {
		FloodFill(o.dim, o.reg, acc, Vec3i{X: s.X, Y: y, Z: s.Z}, MaxLight)
	}
	return nil
}

func (o *Overworld) AddBlock(op Operation) error {
	FloodFill(o.dim, o.reg, BlockAccessor(o.dim), op.Seed, op.Magnitude)
	return nil
}

func (o *Overworld) SubtractSky(op Operation) error {
	return unsupported(op)
}

func (o *Overworld) TerrainChangedSky(op Operation) error {
	return unsupported(op)
}

func (o *Overworld) SubtractBlock(op Operation) error {
	return unsupported(op)
}

func (o *Overworld) TerrainChangedBlock(op Operation) error {
	return unsupported(op)
}

func unsupported(op Operation) error {
	return fmt.Errorf("overworld: %w: %s", ErrNotSupported, op)
}
