package search

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"golang.org/x/sync/semaphore"

	"scenforge/internal/model"
	"scenforge/internal/policy"
	"scenforge/internal/scenario"
	"scenforge/internal/sim"
)

// Config parametrizes one search run.
type Config struct {
	Simulator          sim.Simulator
	FixedPoints        []model.FixedPoint
	Pattern            model.AccidentPattern
	Tables             *policy.Tables
	PopulationSize     int
	Generations        int
	OffspringPerParent int
	Workers            int
	Seed               int64
	Mode               EvalMode
	SimulationRetries  int
}

// RunResult carries the final population and its first Pareto front. Front
// objective vectors keep the minimization sign convention of Evaluate.
type RunResult struct {
	ParetoFront     []*model.ScenarioInstance
	FrontObjectives []ObjectiveVector
	FinalPopulation []*model.ScenarioInstance
	Diagnostics     []model.GenerationDiagnostics
}

// Engine drives the generational loop: evaluate the population against the
// simulator, vary survivors through fuzzing and structural mutation, then
// apply NSGA-II survival selection. One seeded rng makes a run reproducible.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	fuzzer    *Fuzzer
	mutator   *Mutator
	evaluator *Evaluator
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Simulator == nil {
		return nil, fmt.Errorf("simulator is required")
	}
	if len(cfg.FixedPoints) == 0 {
		return nil, scenario.ErrNoFixedPoints
	}
	for i, fp := range cfg.FixedPoints {
		if !fp.Type.IsValid() {
			return nil, &scenario.ConfigurationError{
				Field:  fmt.Sprintf("fixed_points[%d].type", i),
				Reason: fmt.Sprintf("unknown type %q", fp.Type),
			}
		}
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.OffspringPerParent <= 0 {
		cfg.OffspringPerParent = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SimulationRetries < 0 {
		return nil, fmt.Errorf("simulation retries must be >= 0")
	}
	if cfg.Mode == "" {
		cfg.Mode = EvalStrict
	}
	if cfg.Tables == nil {
		cfg.Tables = policy.Default()
	}

	return &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		fuzzer:    NewFuzzer(cfg.Tables),
		mutator:   NewMutator(cfg.Tables),
		evaluator: NewEvaluator(cfg.Mode),
	}, nil
}

// Run executes the configured generation budget starting from an initial
// population of bound instances. Cancelling the context aborts between
// generations and returns the best front found so far.
func (e *Engine) Run(ctx context.Context, initial []*model.ScenarioInstance) (RunResult, error) {
	if len(initial) != e.cfg.PopulationSize {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), e.cfg.PopulationSize)
	}
	for _, inst := range initial {
		if err := scenario.ValidatePrototype(inst.Prototype); err != nil {
			return RunResult{}, fmt.Errorf("instance %s: %w", inst.ID, err)
		}
	}

	population := append([]*model.ScenarioInstance(nil), initial...)
	var objectives []ObjectiveVector
	diagnostics := make([]model.GenerationDiagnostics, 0, e.cfg.Generations)

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			break
		}

		survivors, excludedParents, err := e.simulate(ctx, population)
		if err != nil {
			return RunResult{}, err
		}
		if len(survivors) == 0 {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, ErrIncompleteEvaluation)
		}
		population = survivors

		offspring, err := e.vary(population)
		if err != nil {
			return RunResult{}, err
		}
		offspring, excludedOffspring, err := e.simulate(ctx, offspring)
		if err != nil {
			return RunResult{}, err
		}

		pool := append(append([]*model.ScenarioInstance(nil), population...), offspring...)
		poolSize := len(pool)
		pool, duplicates := CollapseDuplicates(pool)
		objs, err := e.evaluator.Evaluate(pool)
		if err != nil {
			return RunResult{}, err
		}

		population, objectives = SelectSurvivors(pool, objs, e.cfg.PopulationSize)
		diagnostics = append(diagnostics, summarizeGeneration(
			gen+1, poolSize, duplicates, excludedParents+excludedOffspring, objectives,
		))
	}

	// Cancellation before the first completed generation leaves objectives
	// unset; evaluate what we have so a front can still be reported.
	if objectives == nil {
		survivors, _, err := e.simulate(context.WithoutCancel(ctx), population)
		if err != nil {
			return RunResult{}, err
		}
		if len(survivors) == 0 {
			return RunResult{}, ErrIncompleteEvaluation
		}
		population = survivors
		objectives, err = e.evaluator.Evaluate(population)
		if err != nil {
			return RunResult{}, err
		}
	}

	front, frontObjs := firstFront(population, objectives)
	return RunResult{
		ParetoFront:     front,
		FrontObjectives: frontObjs,
		FinalPopulation: population,
		Diagnostics:     diagnostics,
	}, nil
}

// vary produces offspring for every parent: a fuzz child on the parent's own
// topology and a fuzz child on a structurally mutated topology, each guided
// by a fixed point drawn uniformly from the configured set.
func (e *Engine) vary(population []*model.ScenarioInstance) ([]*model.ScenarioInstance, error) {
	offspring := make([]*model.ScenarioInstance, 0, len(population)*2*e.cfg.OffspringPerParent)
	for _, parent := range population {
		for k := 0; k < e.cfg.OffspringPerParent; k++ {
			fp := e.cfg.FixedPoints[e.rng.Intn(len(e.cfg.FixedPoints))]

			offspring = append(offspring, e.fuzzer.Fuzz(e.rng, parent.Prototype, fp))

			mutated, err := e.mutator.Mutate(parent.Prototype, fp, e.cfg.Pattern)
			if err != nil {
				return nil, err
			}
			offspring = append(offspring, e.fuzzer.Fuzz(e.rng, mutated, fp))
		}
	}
	return offspring, nil
}

// simulate fills in missing results through the simulator collaborator, with
// a bounded per-instance retry budget. Instances that still lack results
// afterwards are excluded from the generation rather than zero-filled. The
// returned slice preserves input order.
func (e *Engine) simulate(ctx context.Context, instances []*model.ScenarioInstance) ([]*model.ScenarioInstance, int, error) {
	sem := semaphore.NewWeighted(int64(e.cfg.Workers))
	var wg sync.WaitGroup

	for i := range instances {
		if instances[i].Results != nil {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, 0, err
		}
		wg.Add(1)
		go func(inst *model.ScenarioInstance) {
			defer wg.Done()
			defer sem.Release(1)
			for attempt := 0; attempt <= e.cfg.SimulationRetries; attempt++ {
				if ctx.Err() != nil {
					return
				}
				results, err := e.cfg.Simulator.Simulate(ctx, inst)
				if err == nil && results != nil {
					inst.Results = results
					return
				}
			}
		}(instances[i])
	}
	wg.Wait()

	survivors := make([]*model.ScenarioInstance, 0, len(instances))
	excluded := 0
	for _, inst := range instances {
		if inst.Results == nil {
			excluded++
			continue
		}
		survivors = append(survivors, inst)
	}
	return survivors, excluded, nil
}

func firstFront(population []*model.ScenarioInstance, objs []ObjectiveVector) ([]*model.ScenarioInstance, []ObjectiveVector) {
	fronts := NonDominatedFronts(objs)
	if len(fronts) == 0 {
		return nil, nil
	}
	front := make([]*model.ScenarioInstance, 0, len(fronts[0]))
	frontObjs := make([]ObjectiveVector, 0, len(fronts[0]))
	for _, i := range fronts[0] {
		front = append(front, population[i])
		frontObjs = append(frontObjs, objs[i])
	}
	return front, frontObjs
}

func summarizeGeneration(generation, poolSize, duplicates, excluded int, objs []ObjectiveVector) model.GenerationDiagnostics {
	d := model.GenerationDiagnostics{
		Generation:      generation,
		PoolSize:        poolSize,
		Duplicates:      duplicates,
		Excluded:        excluded,
		MinRecoveryTime: -1,
	}
	if len(objs) == 0 {
		return d
	}

	d.FrontSize = len(NonDominatedFronts(objs)[0])
	diversityTotal := 0.0
	for i, o := range objs {
		violation := -o[ObjViolation]
		criticality := -o[ObjCriticality]
		if i == 0 || violation > d.BestViolation {
			d.BestViolation = violation
		}
		if i == 0 || criticality > d.BestCriticality {
			d.BestCriticality = criticality
		}
		if !math.IsInf(o[ObjRecovery], 1) && (d.MinRecoveryTime < 0 || o[ObjRecovery] < d.MinRecoveryTime) {
			d.MinRecoveryTime = o[ObjRecovery]
		}
		diversityTotal += -o[ObjDiversity]
	}
	d.MeanDiversity = diversityTotal / float64(len(objs))
	return d
}
