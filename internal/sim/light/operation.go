package light

import "fmt"

type Channel uint8

const (
	Sky Channel = iota
	Block
)

func (c Channel) String() string {
	switch c {
	case Sky:
		return "SKY"
	case Block:
		return "BLOCK"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

type Kind uint8

const (
	// Initial seeds a freshly generated or loaded chunk.
	Initial Kind = iota
	Incremental
)

func (k Kind) String() string {
	switch k {
	case Initial:
		return "INITIAL"
	case Incremental:
		return "INCREMENTAL"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

type Mode uint8

const (
	Add Mode = iota
	Subtract
	TerrainChanged
)

func (m Mode) String() string {
	switch m {
	case Add:
		return "ADD"
	case Subtract:
		return "SUBTRACT"
	case TerrainChanged:
		return "TERRAIN_CHANGED"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Operation describes one pending lighting change. It is created once, queued
// once and consumed once.
type Operation struct {
	Seed      Vec3i
	Channel   Channel
	Kind      Kind
	Mode      Mode
	Magnitude uint8
}

func NewOperation(seed Vec3i, ch Channel, kind Kind, mode Mode, magnitude int) Operation {
	if magnitude < 0 {
		magnitude = 0
	}
	if magnitude > int(MaxLight) {
		magnitude = int(MaxLight)
	}
	return Operation{
		Seed:      seed,
		Channel:   ch,
		Kind:      kind,
		Mode:      mode,
		Magnitude: uint8(magnitude),
	}
}

func (op Operation) String() string {
	return fmt.Sprintf("%s/%s/%s@(%d,%d,%d)x%d", op.Kind, op.Channel, op.Mode, op.Seed.X, op.Seed.Y, op.Seed.Z, op.Magnitude)
}
