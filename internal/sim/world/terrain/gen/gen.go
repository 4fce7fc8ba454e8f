package gen

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"voxlight.ai/internal/sim/world/logic/mathx"
)

// WorldGen holds the generator tuning and the palette ids it places.
type WorldGen struct {
	Seed   int64
	Height int

	BaseHeight   int
	Amplitude    int     // 0 generates a flat world at BaseHeight
	NoiseScale   float64 // blocks per noise unit
	TreePermille int
	LampPermille int

	Air       uint16
	Stone     uint16
	Dirt      uint16
	Grass     uint16
	Log       uint16
	Leaves    uint16
	Glowstone uint16
}

type Generator struct {
	cfg   WorldGen
	noise opensimplex.Noise
}

func New(cfg WorldGen) *Generator {
	if cfg.NoiseScale <= 0 {
		cfg.NoiseScale = 48
	}
	return &Generator{cfg: cfg, noise: opensimplex.New(cfg.Seed)}
}

func (g *Generator) Config() WorldGen { return g.cfg }

// HeightAt returns the terrain height (first air y) of the column.
func (g *Generator) HeightAt(x, z int) int {
	h := g.cfg.BaseHeight
	if g.cfg.Amplitude > 0 {
		n := g.noise.Eval2(float64(x)/g.cfg.NoiseScale, float64(z)/g.cfg.NoiseScale)
		h += int(math.Round(n * float64(g.cfg.Amplitude)))
	}
	// Leave headroom for trees.
	return mathx.ClampInt(h, 1, g.cfg.Height-8)
}

func (g *Generator) permille(salt int64, x, z int) uint64 {
	return mathx.Hash2(g.cfg.Seed+salt, x, z) % 1000
}

// TreeAt reports whether a tree trunk is rooted on the column.
func (g *Generator) TreeAt(x, z int) bool {
	return g.permille(201, x, z) < uint64(mathx.ClampInt(g.cfg.TreePermille, 0, 1000))
}

// LampAt reports whether a glowstone block replaces the column's surface.
func (g *Generator) LampAt(x, z int) bool {
	return g.permille(301, x, z) < uint64(mathx.ClampInt(g.cfg.LampPermille, 0, 1000))
}

// Column returns the block at height y of a column whose terrain height is h.
func (g *Generator) Column(y, h int) uint16 {
	switch {
	case y >= h:
		return g.cfg.Air
	case y == h-1:
		return g.cfg.Grass
	case y >= h-4:
		return g.cfg.Dirt
	default:
		return g.cfg.Stone
	}
}
