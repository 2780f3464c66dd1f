package storage

import (
	"context"

	"x402-lab/internal/domain"
)

// RunStore provides access to simulation_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetByPreset retrieves all runs for a preset, ordered by scheme.
	GetByPreset(ctx context.Context, preset string) ([]*domain.RunRecord, error)

	// GetAll retrieves all runs, ordered by preset, scheme, run_id.
	GetAll(ctx context.Context) ([]*domain.RunRecord, error)
}

// LatencySampleStore provides access to latency_samples storage.
type LatencySampleStore interface {
	// InsertBulk stores a run's latencies in recorded order.
	// Returns ErrDuplicateKey if the run already has samples.
	InsertBulk(ctx context.Context, runID string, samples []float64) error

	// GetByRunID retrieves a run's latencies in recorded order.
	// Returns an empty slice if the run has no samples.
	GetByRunID(ctx context.Context, runID string) ([]float64, error)
}

// ResultCache holds result summaries keyed by deterministic run inputs.
type ResultCache interface {
	// Get returns the cached summary. Returns ErrNotFound on a miss.
	Get(ctx context.Context, key string) (*domain.SimulationResult, error)

	// Set stores a summary. Latencies are not cached.
	Set(ctx context.Context, key string, r *domain.SimulationResult) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
