package memory

import (
	"context"
	"sort"
	"sync"

	"x402-lab/internal/domain"
	"x402-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunRecord),
	}
}

var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// GetByPreset retrieves all runs for a preset, ordered by scheme.
func (s *RunStore) GetByPreset(_ context.Context, preset string) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunRecord
	for _, r := range s.data {
		if r.Preset == preset {
			result = append(result, copyRun(r))
		}
	}
	sortRuns(result)
	return result, nil
}

// GetAll retrieves all runs, ordered by preset, scheme, run_id.
func (s *RunStore) GetAll(_ context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunRecord, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRun(r))
	}
	sortRuns(result)
	return result, nil
}

func sortRuns(runs []*domain.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if a.Preset != b.Preset {
			return a.Preset < b.Preset
		}
		if a.Scheme.Order() != b.Scheme.Order() {
			return a.Scheme.Order() < b.Scheme.Order()
		}
		return a.RunID < b.RunID
	})
}

// copyRun returns a copy that shares no slices with r.
func copyRun(r *domain.RunRecord) *domain.RunRecord {
	c := *r
	c.Result.Latencies = nil
	return &c
}
