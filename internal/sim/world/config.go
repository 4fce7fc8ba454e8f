package world

import "voxlight.ai/internal/sim/tuning"

type WorldConfig struct {
	ID         string
	TickRateHz int
	Height     int
	Seed       int64

	// Worldgen tuning.
	BaseHeight   int
	Amplitude    int
	NoiseScale   float64
	TreePermille int
	LampPermille int

	// Lighting.
	OpsPerTick int // 0 drains the queue fully every tick
	// RescanUnsupported relights the affected chunks when an operation the
	// dimension lighter cannot apply incrementally is dequeued. When false the
	// operation is only counted and logged.
	RescanUnsupported bool

	// Operational parameters.
	SnapshotEveryTicks int
	EditWindowTicks    int
	EditMax            int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "overworld"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.Height <= 0 {
		c.Height = 128
	}
	if c.BaseHeight <= 0 || c.BaseHeight >= c.Height {
		c.BaseHeight = c.Height * 3 / 8
	}
	if c.NoiseScale <= 0 {
		c.NoiseScale = 64
	}
	if c.OpsPerTick < 0 {
		c.OpsPerTick = 0
	}
	if c.SnapshotEveryTicks < 0 {
		c.SnapshotEveryTicks = 0
	}
	if c.EditWindowTicks <= 0 {
		c.EditWindowTicks = c.TickRateHz
	}
	if c.EditMax <= 0 {
		c.EditMax = 64
	}
}

// ConfigFromTuning maps a tuning file onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		Height:             t.WorldGen.Height,
		Seed:               t.WorldGen.Seed,
		BaseHeight:         t.WorldGen.BaseHeight,
		Amplitude:          t.WorldGen.Amplitude,
		NoiseScale:         t.WorldGen.NoiseScale,
		TreePermille:       t.WorldGen.TreePermille,
		LampPermille:       t.WorldGen.LampPermille,
		OpsPerTick:         t.Lighting.OpsPerTick,
		RescanUnsupported:  t.Lighting.RescanUnsupported,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		EditWindowTicks:    t.Edits.WindowTicks,
		EditMax:            t.Edits.Max,
	}
}
