// Package solver defines the optimizer the decomposition driver calls, a
// capacity gate that stands in for a real layout solver, and a REQ/REP
// transport for optimizers running in another process.
package solver

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
)

// Solution carries back the ids an optimizer solved plus an opaque payload for
// downstream placement.
type Solution struct {
	InstanceID   string          `json:"instance_id"`
	EntityIDs    []int           `json:"entity_ids"`
	StatementIDs []int           `json:"statement_ids"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// NewSolution returns a solution covering every entity and statement of inst.
func NewSolution(inst *instance.Instance, payload json.RawMessage) *Solution {
	return &Solution{
		InstanceID:   inst.ID,
		EntityIDs:    slices.Clone(inst.Entities),
		StatementIDs: slices.Clone(inst.Statements),
		Payload:      payload,
	}
}

// Optimizer solves an instance. A nil Solution with a nil error means the
// instance could not be solved as a whole and has to be decomposed.
type Optimizer interface {
	Solve(ctx context.Context, inst *instance.Instance) (*Solution, error)
}

// OptimizerFunc adapts a function to Optimizer.
type OptimizerFunc func(ctx context.Context, inst *instance.Instance) (*Solution, error)

// Solve calls f.
func (f OptimizerFunc) Solve(ctx context.Context, inst *instance.Instance) (*Solution, error) {
	return f(ctx, inst)
}
