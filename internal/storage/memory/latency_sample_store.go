package memory

import (
	"context"
	"sync"

	"x402-lab/internal/storage"
)

// LatencySampleStore is an in-memory implementation of storage.LatencySampleStore.
type LatencySampleStore struct {
	mu   sync.RWMutex
	data map[string][]float64 // keyed by run_id
}

// NewLatencySampleStore creates a new in-memory latency sample store.
func NewLatencySampleStore() *LatencySampleStore {
	return &LatencySampleStore{
		data: make(map[string][]float64),
	}
}

var _ storage.LatencySampleStore = (*LatencySampleStore)(nil)

// InsertBulk stores a run's latencies. Returns ErrDuplicateKey if the run has samples.
func (s *LatencySampleStore) InsertBulk(_ context.Context, runID string, samples []float64) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[runID] = append([]float64(nil), samples...)
	return nil
}

// GetByRunID retrieves a run's latencies in recorded order.
func (s *LatencySampleStore) GetByRunID(_ context.Context, runID string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]float64{}, s.data[runID]...), nil
}
