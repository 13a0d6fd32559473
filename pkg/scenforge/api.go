// Package scenforge is the embedding surface of the scenario search engine:
// configure a run, execute it against a simulator collaborator, and persist
// the resulting Pareto front for the downstream serialization step.
package scenforge

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"scenforge/internal/model"
	"scenforge/internal/policy"
	"scenforge/internal/scenario"
	"scenforge/internal/search"
	"scenforge/internal/sim"
	"scenforge/internal/storage"
)

const defaultDBPath = "scenforge.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// SearchRequest configures one search run. Prototype and Pattern come from
// the external fixed-point extraction step; the fixed points under test are
// the ones attached to the prototype.
type SearchRequest struct {
	RunID              string
	Prototype          *model.ScenarioPrototype
	Pattern            model.AccidentPattern
	PopulationSize     int
	Generations        int
	OffspringPerParent int
	Workers            int
	Seed               int64
	SimulationRetries  int
	Mode               string
	PolicyYAML         []byte
	Simulator          sim.Simulator
}

type SearchSummary struct {
	RunID            string
	Generations      int
	FrontSize        int
	FrontInstanceIDs []string
	Diagnostics      []model.GenerationDiagnostics
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Search runs the full generational loop and persists the run record plus
// every instance on the final Pareto front.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchSummary, error) {
	if err := scenario.ValidatePrototype(req.Prototype); err != nil {
		return SearchSummary{}, err
	}
	if req.PopulationSize <= 0 {
		return SearchSummary{}, errors.New("population size must be > 0")
	}
	if req.Generations <= 0 {
		return SearchSummary{}, errors.New("generations must be > 0")
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	simulator := req.Simulator
	if simulator == nil {
		simulator = sim.NewSynthetic()
	}

	tables := policy.Default()
	if len(req.PolicyYAML) > 0 {
		var err error
		tables, err = policy.Load(req.PolicyYAML)
		if err != nil {
			return SearchSummary{}, err
		}
	}

	engine, err := search.NewEngine(search.Config{
		Simulator:          simulator,
		FixedPoints:        req.Prototype.FixedPoints,
		Pattern:            req.Pattern,
		Tables:             tables,
		PopulationSize:     req.PopulationSize,
		Generations:        req.Generations,
		OffspringPerParent: req.OffspringPerParent,
		Workers:            req.Workers,
		Seed:               req.Seed,
		Mode:               search.EvalMode(req.Mode),
		SimulationRetries:  req.SimulationRetries,
	})
	if err != nil {
		return SearchSummary{}, err
	}

	initial := seedPopulation(req.Prototype, tables, req.PopulationSize, req.Seed)
	result, err := engine.Run(ctx, initial)
	if err != nil {
		return SearchSummary{}, err
	}

	frontIDs := make([]string, 0, len(result.ParetoFront))
	for _, inst := range result.ParetoFront {
		if err := c.store.SaveInstance(ctx, *inst); err != nil {
			return SearchSummary{}, fmt.Errorf("save instance %s: %w", inst.ID, err)
		}
		frontIDs = append(frontIDs, inst.ID)
	}

	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: model.CurrentSchemaVersion,
			CodecVersion:  model.CurrentCodecVersion,
		},
		RunID:            runID,
		CreatedAtUTC:     time.Now().UTC().Format(time.RFC3339),
		Seed:             req.Seed,
		PopulationSize:   req.PopulationSize,
		Generations:      req.Generations,
		FrontInstanceIDs: frontIDs,
		Diagnostics:      result.Diagnostics,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return SearchSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}

	return SearchSummary{
		RunID:            runID,
		Generations:      req.Generations,
		FrontSize:        len(frontIDs),
		FrontInstanceIDs: frontIDs,
		Diagnostics:      result.Diagnostics,
	}, nil
}

// Front loads the persisted Pareto front of a run.
func (c *Client) Front(ctx context.Context, runID string) ([]model.ScenarioInstance, error) {
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	out := make([]model.ScenarioInstance, 0, len(run.FrontInstanceIDs))
	for _, id := range run.FrontInstanceIDs {
		inst, ok, err := c.store.GetInstance(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("front instance not found: %s", id)
		}
		out = append(out, inst)
	}
	return out, nil
}

// Runs lists persisted run records, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, limit)
}

// seedPopulation fuzzes the prototype once per slot, cycling through its
// fixed points so each invariant contributes seeds.
func seedPopulation(proto *model.ScenarioPrototype, tables *policy.Tables, size int, seed int64) []*model.ScenarioInstance {
	rng := rand.New(rand.NewSource(seed))
	fuzzer := search.NewFuzzer(tables)
	out := make([]*model.ScenarioInstance, 0, size)
	for i := 0; i < size; i++ {
		fp := proto.FixedPoints[i%len(proto.FixedPoints)]
		out = append(out, fuzzer.Fuzz(rng, proto, fp))
	}
	return out
}
