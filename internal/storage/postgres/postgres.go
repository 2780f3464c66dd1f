// Package postgres stores simulation run records in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxConns caps the pool. Runs are persisted one record at a time,
// so a handful of connections covers CompareAll's parallelism.
const DefaultMaxConns int32 = 8

// ApplicationName tags server-side sessions in pg_stat_activity.
const ApplicationName = "x402-lab"

// Pool wraps pgxpool.Pool and owns the schema migration step.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to the run database and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if config.MaxConns == 0 || config.MaxConns > DefaultMaxConns {
		config.MaxConns = DefaultMaxConns
	}
	if _, ok := config.ConnConfig.RuntimeParams["application_name"]; !ok {
		config.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// Script is one named schema migration.
type Script struct {
	Name string
	SQL  string
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate applies scripts in order, each in its own transaction.
// Scripts already recorded in schema_migrations are skipped.
// Returns the names applied by this call.
func (p *Pool) Migrate(ctx context.Context, scripts []Script) ([]string, error) {
	if _, err := p.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, s := range scripts {
		ok, err := p.applyScript(ctx, s)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, s.Name)
		}
	}
	return applied, nil
}

// AppliedMigrations lists recorded migration names in name order.
func (p *Pool) AppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := p.Query(ctx, `SELECT name FROM schema_migrations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan migrations: %w", err)
	}
	return names, nil
}

// applyScript runs one script and records it atomically.
// Returns false when the script was already recorded.
func (p *Pool) applyScript(ctx context.Context, s Script) (bool, error) {
	tx, err := p.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin migration %s: %w", s.Name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, s.Name)
	if err != nil {
		return false, fmt.Errorf("record migration %s: %w", s.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, s.SQL); err != nil {
		return false, fmt.Errorf("apply migration %s: %w", s.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", s.Name, err)
	}
	return true, nil
}
