package postgres

import (
	"context"
	"io/fs"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schemaDir holds the run store schema relative to this package.
const schemaDir = "../migrations/postgres"

// setupTestDB starts a PostgreSQL container and migrates it to the run store schema.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("x402"),
		postgres.WithUsername("x402"),
		postgres.WithPassword("x402"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "create pool")

	_, err = pool.Migrate(ctx, schemaScripts(t))
	require.NoError(t, err, "migrate")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
	return pool, cleanup
}

// schemaScripts reads the on-disk schema files in name order.
func schemaScripts(t *testing.T) []Script {
	t.Helper()

	fsys := os.DirFS(schemaDir)
	names, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names, "no schema files under %s", schemaDir)

	scripts := make([]Script, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		require.NoError(t, err)
		scripts = append(scripts, Script{Name: path.Base(name), SQL: string(data)})
	}
	return scripts
}
