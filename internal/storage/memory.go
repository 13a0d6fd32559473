package storage

import (
	"context"
	"sync"

	"scenforge/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	instances   map[string]model.ScenarioInstance
	runs        map[string]model.RunRecord
	runOrder    []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.instances = make(map[string]model.ScenarioInstance)
	s.runs = make(map[string]model.RunRecord)
	s.runOrder = nil
	return nil
}

func (s *MemoryStore) SaveInstance(_ context.Context, inst model.ScenarioInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instances[inst.ID] = inst
	return nil
}

func (s *MemoryStore) GetInstance(_ context.Context, id string) (model.ScenarioInstance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[id]
	return inst, ok, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; !exists {
		s.runOrder = append(s.runOrder, run.RunID)
	}
	s.runs[run.RunID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	return run, ok, nil
}

// ListRuns returns runs newest-first by insertion order.
func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0, len(s.runOrder))
	for i := len(s.runOrder) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.runs[s.runOrder[i]])
	}
	return out, nil
}
