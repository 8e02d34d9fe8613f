package solver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
)

// Capacity accepts instances small enough to lay out on a grid of the given
// dimensions: at most (Dimensions+1)^2 statements and, when MaxEntities is
// positive, at most MaxEntities entities. It does not compute a layout.
type Capacity struct {
	Dimensions  int
	MaxEntities int
}

// NewCapacity returns a capacity gate for a grid of the given dimensions.
func NewCapacity(dimensions, maxEntities int) *Capacity {
	return &Capacity{Dimensions: dimensions, MaxEntities: maxEntities}
}

// StatementLimit is the largest statement count Solve accepts.
func (c *Capacity) StatementLimit() int {
	return (c.Dimensions + 1) * (c.Dimensions + 1)
}

type capacityPayload struct {
	Dimensions int `json:"dimensions"`
	Statements int `json:"statements"`
	Entities   int `json:"entities"`
}

// Solve returns nil for instances over capacity and a solution echoing the
// instance's ids otherwise.
func (c *Capacity) Solve(ctx context.Context, inst *instance.Instance) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if inst.NumberOfStatements() > c.StatementLimit() {
		return nil, nil
	}
	if c.MaxEntities > 0 && inst.NumberOfEntities() > c.MaxEntities {
		return nil, nil
	}

	payload, err := json.Marshal(capacityPayload{
		Dimensions: c.Dimensions,
		Statements: inst.NumberOfStatements(),
		Entities:   inst.NumberOfEntities(),
	})
	if err != nil {
		return nil, fmt.Errorf("capacity payload: %w", err)
	}
	return NewSolution(inst, payload), nil
}
