package search

import "errors"

var (
	// ErrMissingSimulationData is returned in strict mode when an instance
	// reaches fitness evaluation without simulator results.
	ErrMissingSimulationData = errors.New("simulation results are missing")

	// ErrIncompleteEvaluation is returned when simulation failed for every
	// instance of a generation even after the retry budget.
	ErrIncompleteEvaluation = errors.New("incomplete evaluation")

	// ErrUnknownOperator is returned for structural operator names outside
	// the closed operator set.
	ErrUnknownOperator = errors.New("unknown structural operator")
)
