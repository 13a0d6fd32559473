package search

import (
	"math/rand"

	"scenforge/internal/model"
	"scenforge/internal/policy"
	"scenforge/internal/scenario"
)

// Fuzzer resamples the parameters of a scenario instance that are sensitive
// to a given fixed point. Which parameters matter comes from the sensitivity
// table; how each is perturbed comes from the perturbation table. Keeping the
// two separate lets every fixed-point subtype share one sampling mechanism.
type Fuzzer struct {
	tables *policy.Tables
}

func NewFuzzer(tables *policy.Tables) *Fuzzer {
	if tables == nil {
		tables = policy.Default()
	}
	return &Fuzzer{tables: tables}
}

// Fuzz builds a fresh instance from the prototype's deterministic baseline
// (all declared ranges at their midpoints, dependent defaults bound) and then
// redraws each parameter sensitive to the fixed point from its perturbation
// range. The input prototype is never mutated. Unknown subtypes have an empty
// sensitive set, so the result is the baseline itself. The rng must be
// non-nil; seeding it makes the fuzz reproducible.
func (f *Fuzzer) Fuzz(rng *rand.Rand, proto *model.ScenarioPrototype, fp model.FixedPoint) *model.ScenarioInstance {
	inst := scenario.NewInstance(proto)
	for _, param := range f.tables.SensitiveParams(fp) {
		p := f.tables.PerturbationFor(param)
		inst.Parameters[param] = p.Min + rng.Float64()*(p.Max-p.Min)
	}
	return inst
}
