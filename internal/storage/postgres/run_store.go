package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"x402-lab/internal/domain"
	"x402-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// uniqueViolation is the SQLSTATE for a duplicate run_id.
const uniqueViolation = "23505"

const runColumns = `
	run_id, preset, scheme, seed, config_fingerprint, config,
	users, total_requests, successful_requests, failed_requests, rate_limited_requests,
	total_payments, settlement_failures, churned_users, trusted_users,
	total_revenue_usd, avg_latency_ms, p50_latency_ms, p95_latency_ms, p99_latency_ms,
	total_time_ms, created_at`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	query := `INSERT INTO simulation_runs (` + runColumns + `, scheme_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)`

	res := r.Result
	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.Preset,
		string(r.Scheme),
		r.Seed,
		r.ConfigFingerprint,
		cfg,
		res.Users,
		res.TotalRequests,
		res.SuccessfulRequests,
		res.FailedRequests,
		res.RateLimitedRequests,
		res.TotalPayments,
		res.SettlementFailures,
		res.ChurnedUsers,
		res.TrustedUsers,
		res.TotalRevenueUSD,
		res.AvgLatencyMs,
		res.P50LatencyMs,
		res.P95LatencyMs,
		res.P99LatencyMs,
		res.TotalTimeMs,
		r.CreatedAt,
		r.Scheme.Order(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM simulation_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetByPreset retrieves all runs for a preset, ordered by scheme.
func (s *RunStore) GetByPreset(ctx context.Context, preset string) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + `
		FROM simulation_runs
		WHERE preset = $1
		ORDER BY scheme_order ASC, run_id ASC`

	rows, err := s.pool.Query(ctx, query, preset)
	if err != nil {
		return nil, fmt.Errorf("get runs by preset: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetAll retrieves all runs, ordered by preset, scheme, run_id.
func (s *RunStore) GetAll(ctx context.Context) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + `
		FROM simulation_runs
		ORDER BY preset ASC, scheme_order ASC, run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRun scans a single row into a RunRecord.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var schemeStr string
	var cfg []byte
	res := &r.Result

	err := row.Scan(
		&r.RunID,
		&r.Preset,
		&schemeStr,
		&r.Seed,
		&r.ConfigFingerprint,
		&cfg,
		&res.Users,
		&res.TotalRequests,
		&res.SuccessfulRequests,
		&res.FailedRequests,
		&res.RateLimitedRequests,
		&res.TotalPayments,
		&res.SettlementFailures,
		&res.ChurnedUsers,
		&res.TrustedUsers,
		&res.TotalRevenueUSD,
		&res.AvgLatencyMs,
		&res.P50LatencyMs,
		&res.P95LatencyMs,
		&res.P99LatencyMs,
		&res.TotalTimeMs,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cfg, &r.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	r.Scheme = domain.Scheme(schemeStr)
	res.Scheme = r.Scheme
	return &r, nil
}

// scanRuns scans multiple rows into a slice of RunRecord.
func scanRuns(rows pgx.Rows) ([]*domain.RunRecord, error) {
	var runs []*domain.RunRecord

	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
