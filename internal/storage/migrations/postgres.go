package migrations

import (
	"context"

	"x402-lab/internal/storage/postgres"
)

// PostgresScripts returns the embedded run store schema in apply order.
func PostgresScripts() ([]postgres.Script, error) {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	scripts := make([]postgres.Script, 0, len(files))
	for _, m := range files {
		scripts = append(scripts, postgres.Script{Name: m.name, SQL: m.sql})
	}
	return scripts, nil
}

// RunPostgres applies any embedded migrations the database has not recorded.
func RunPostgres(ctx context.Context, pool *postgres.Pool) error {
	scripts, err := PostgresScripts()
	if err != nil {
		return err
	}
	_, err = pool.Migrate(ctx, scripts)
	return err
}
