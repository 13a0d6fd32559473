package search

import (
	"fmt"
	"math"

	"scenforge/internal/model"
	"scenforge/internal/policy"
	"scenforge/internal/scenario"
)

// EvalMode controls how missing simulation data is handled. Strict fails
// fast; lenient applies the reference defaults (missing field reads as no
// observed violation).
type EvalMode string

const (
	EvalStrict  EvalMode = "strict"
	EvalLenient EvalMode = "lenient"
)

// Objective indices. All four are minimized by the selector; violation
// degree, criticality, and diversity are therefore negated at this boundary
// so that "more invariant stress" always means "smaller objective".
const (
	ObjViolation   = 0
	ObjRecovery    = 1
	ObjCriticality = 2
	ObjDiversity   = 3

	ObjectiveCount = 4
)

type ObjectiveVector [ObjectiveCount]float64

// Criticality threshold rule: contributions accrue only below the headway and
// TTC thresholds, plus a flat weight per distinct violation type.
const (
	criticalHeadwayThreshold = 5.0
	criticalHeadwayWeight    = 10.0
	criticalTTCThreshold     = 2.0
	criticalTTCWeight        = 5.0
	uniqueViolationWeight    = 20.0
)

// Evaluator maps simulated instances to objective vectors. It is a pure
// reader of simulation results; the population-relative diversity term is the
// only cross-instance coupling and is computed after every per-instance term.
type Evaluator struct {
	mode EvalMode
}

func NewEvaluator(mode EvalMode) *Evaluator {
	if mode == "" {
		mode = EvalStrict
	}
	return &Evaluator{mode: mode}
}

// Evaluate returns one objective vector per instance, index-aligned with the
// population. Every instance must carry a non-empty fixed point list; in
// strict mode every instance must also carry simulation results.
func (e *Evaluator) Evaluate(population []*model.ScenarioInstance) ([]ObjectiveVector, error) {
	out := make([]ObjectiveVector, len(population))
	for i, inst := range population {
		if inst.Prototype == nil || len(inst.Prototype.FixedPoints) == 0 {
			return nil, fmt.Errorf("instance %s: %w", inst.ID, scenario.ErrNoFixedPoints)
		}
		results := inst.Results
		if results == nil {
			if e.mode == EvalStrict {
				return nil, fmt.Errorf("instance %s: %w", inst.ID, ErrMissingSimulationData)
			}
			results = &model.SimulationResults{}
		}
		out[i][ObjViolation] = -violationDegree(inst.Prototype.FixedPoints, results)
		out[i][ObjRecovery] = recoveryTime(inst.Prototype.FixedPoints, results)
		out[i][ObjCriticality] = -criticality(results)
	}

	// Diversity depends on the whole population; it is finalized last, after
	// all individual objectives exist.
	for i, score := range diversityScores(population) {
		out[i][ObjDiversity] = -score
	}
	return out, nil
}

// violationDegree sums, over safety fixed points, the subtype's numeric
// stress field from the results. Missing fields read as zero so partial
// simulator output degrades instead of failing.
func violationDegree(fixedPoints []model.FixedPoint, r *model.SimulationResults) float64 {
	total := 0.0
	for _, fp := range fixedPoints {
		if fp.Type != model.FixedPointSafety {
			continue
		}
		switch fp.Subtype {
		case policy.SubtypeSafeHeadway:
			total += r.TotalHeadwayViolationMagnitude
		case policy.SubtypeLaneKeeping:
			total += r.MaxLateralDeviation
		}
	}
	return total
}

// recoveryTime is the worst time-to-recover over the applicable recovery
// fixed points. Any unrecovered fixed point makes the scenario unrecoverable:
// the objective becomes +Inf and dominates in sorting. Fixed points without
// recovery status are not applicable and contribute nothing.
func recoveryTime(fixedPoints []model.FixedPoint, r *model.SimulationResults) float64 {
	worst := 0.0
	for _, fp := range fixedPoints {
		if fp.Type != model.FixedPointRecovery {
			continue
		}
		status, ok := r.RecoveryStatus[fp.Subtype]
		if !ok {
			continue
		}
		if !status.Recovered {
			return math.Inf(1)
		}
		if status.TimeToRecover > worst {
			worst = status.TimeToRecover
		}
	}
	return worst
}

// criticality is a composite heuristic over the whole trace, independent of
// which fixed point types are attached.
func criticality(r *model.SimulationResults) float64 {
	score := 0.0
	if r.MinHeadwayDistance < criticalHeadwayThreshold {
		score += (criticalHeadwayThreshold - r.MinHeadwayDistance) * criticalHeadwayWeight
	}
	if r.MinTTC < criticalTTCThreshold {
		score += (criticalTTCThreshold - r.MinTTC) * criticalTTCWeight
	}
	score += float64(r.UniqueViolationCount) * uniqueViolationWeight
	return score
}
