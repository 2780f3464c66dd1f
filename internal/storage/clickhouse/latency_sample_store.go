package clickhouse

import (
	"context"
	"fmt"

	"x402-lab/internal/storage"
)

// LatencySampleStore implements storage.LatencySampleStore using ClickHouse.
type LatencySampleStore struct {
	conn *Conn
}

// NewLatencySampleStore creates a new LatencySampleStore.
func NewLatencySampleStore(conn *Conn) *LatencySampleStore {
	return &LatencySampleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LatencySampleStore = (*LatencySampleStore)(nil)

// InsertBulk stores samples with their sequence numbers.
// Fails with ErrDuplicateKey if the run already has samples.
func (s *LatencySampleStore) InsertBulk(ctx context.Context, runID string, samples []float64) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	// MergeTree does not enforce uniqueness; check explicitly.
	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO latency_samples (run_id, seq, latency_ms)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, v := range samples {
		if err := batch.Append(runID, uint32(i), v); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves samples ordered by sequence number.
func (s *LatencySampleStore) GetByRunID(ctx context.Context, runID string) ([]float64, error) {
	query := `
		SELECT latency_ms
		FROM latency_samples
		WHERE run_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanLatencies(rows)
}

// exists checks if any sample exists for the run.
func (s *LatencySampleStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `
		SELECT count(*) FROM latency_samples
		WHERE run_id = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanLatencies scans single-column latency rows.
func scanLatencies(rows chRows) ([]float64, error) {
	samples := []float64{}

	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan latency row: %w", err)
		}
		samples = append(samples, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latency rows: %w", err)
	}

	return samples, nil
}
