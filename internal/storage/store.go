package storage

import (
	"context"

	"scenforge/internal/model"
)

// Store persists search artifacts: evaluated scenario instances and run
// summaries. The engine itself never touches a store; the facade saves the
// Pareto front after a run so the serialization collaborator can pick it up.
type Store interface {
	Init(ctx context.Context) error
	SaveInstance(ctx context.Context, inst model.ScenarioInstance) error
	GetInstance(ctx context.Context, id string) (model.ScenarioInstance, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
}
