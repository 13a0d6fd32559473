// Package sim defines the boundary to the physics/traffic simulator
// collaborator. The engine hands over a bound scenario instance and gets back
// a trace summary; everything between those two records is external.
package sim

import (
	"context"

	"scenforge/internal/model"
)

type Simulator interface {
	Name() string
	Simulate(ctx context.Context, inst *model.ScenarioInstance) (*model.SimulationResults, error)
}
