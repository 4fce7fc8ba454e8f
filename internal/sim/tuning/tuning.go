package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	LoadRadius         int `yaml:"load_radius"`

	Lighting Lighting `yaml:"lighting"`
	WorldGen WorldGen `yaml:"worldgen"`
	Edits    Edits    `yaml:"edits"`
}

// Edits bounds how many block edits one session may submit per window.
type Edits struct {
	WindowTicks int `yaml:"window_ticks"`
	Max         int `yaml:"max"`
}

type Lighting struct {
	// OpsPerTick caps how many queued operations one tick executes; 0 drains fully.
	OpsPerTick int `yaml:"ops_per_tick"`
	// RescanUnsupported re-lights a chunk when an operation the lighter
	// cannot apply incrementally is dequeued.
	RescanUnsupported bool `yaml:"rescan_unsupported"`
}

type WorldGen struct {
	Seed         int64   `yaml:"seed"`
	Height       int     `yaml:"height"`
	BaseHeight   int     `yaml:"base_height"`
	Amplitude    int     `yaml:"amplitude"`
	NoiseScale   float64 `yaml:"noise_scale"`
	TreePermille int     `yaml:"tree_permille"`
	LampPermille int     `yaml:"lamp_permille"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "0.1",
		TickRateHz:         20,
		SnapshotEveryTicks: 3000,
		LoadRadius:         2,
		Lighting: Lighting{
			OpsPerTick:        4096,
			RescanUnsupported: true,
		},
		WorldGen: WorldGen{
			Seed:         1337,
			Height:       128,
			BaseHeight:   48,
			Amplitude:    12,
			NoiseScale:   64,
			TreePermille: 8,
			LampPermille: 2,
		},
		Edits: Edits{
			WindowTicks: 20,
			Max:         64,
		},
	}
}

// Load reads a yaml file on top of Defaults, so partial files are valid.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.WorldGen.Height < 16:
		return fmt.Errorf("worldgen.height must be >= 16")
	case t.WorldGen.BaseHeight <= 0 || t.WorldGen.BaseHeight >= t.WorldGen.Height:
		return fmt.Errorf("worldgen.base_height must be in (0, height)")
	case t.Lighting.OpsPerTick < 0:
		return fmt.Errorf("lighting.ops_per_tick must be >= 0")
	case t.LoadRadius < 0:
		return fmt.Errorf("load_radius must be >= 0")
	case t.Edits.WindowTicks < 0 || t.Edits.Max < 0:
		return fmt.Errorf("edits.window_ticks and edits.max must be >= 0")
	}
	return nil
}
