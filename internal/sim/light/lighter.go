package light

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported marks an operation combination the dimension lighter does
	// not implement. Nothing is mutated when it is returned.
	ErrNotSupported = errors.New("lighting operation not supported")

	ErrInvalidOperation = errors.New("invalid lighting operation")
)

// DimensionLighter supplies the per-dimension routines the Lighter dispatches to.
type DimensionLighter interface {
	Initial(cp ChunkPos) error

	AddSky(op Operation) error
	SubtractSky(op Operation) error
	TerrainChangedSky(op Operation) error

	AddBlock(op Operation) error
	SubtractBlock(op Operation) error
	TerrainChangedBlock(op Operation) error
}

type Lighter struct {
	dim  Dimension
	impl DimensionLighter
}

func NewLighter(dim Dimension, impl DimensionLighter) *Lighter {
	return &Lighter{dim: dim, impl: impl}
}

// Execute runs one operation to completion. An operation whose target chunk
// is not resident is dropped without error: the chunk is relit from scratch
// when it next loads.
func (l *Lighter) Execute(op Operation) error {
	cp := ChunkOf(op.Seed)
	if !l.dim.HasChunk(cp) {
		return nil
	}

	switch op.Kind {
	case Initial:
		return l.impl.Initial(cp)
	case Incremental:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOperation, op)
	}

	switch op.Channel {
	case Sky:
		switch op.Mode {
		case Add:
			return l.impl.AddSky(op)
		case Subtract:
			return l.impl.SubtractSky(op)
		case TerrainChanged:
			return l.impl.TerrainChangedSky(op)
		}
	case Block:
		switch op.Mode {
		case Add:
			return l.impl.AddBlock(op)
		case Subtract:
			return l.impl.SubtractBlock(op)
		case TerrainChanged:
			return l.impl.TerrainChangedBlock(op)
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidOperation, op)
}

type DrainResult struct {
	Executed    int
	Failed      int
	Unsupported []Operation
}

// Drain dequeues and executes operations until the queue is empty or budget
// operations have run. A budget <= 0 drains to a fixed point.
func (l *Lighter) Drain(q *Queue, budget int) DrainResult {
	var res DrainResult
	for budget <= 0 || res.Executed+res.Failed+len(res.Unsupported) < budget {
		op, ok := q.Dequeue()
		if !ok {
			break
		}
		err := l.Execute(op)
		switch {
		case err == nil:
			res.Executed++
		case errors.Is(err, ErrNotSupported):
			res.Unsupported = append(res.Unsupported, op)
		default:
			res.Failed++
		}
	}
	return res
}
