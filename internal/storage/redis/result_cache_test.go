package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"x402-lab/internal/domain"
	"x402-lab/internal/storage"
)

// setupTestCache starts a Redis container and returns a connected cache.
func setupTestCache(t *testing.T, ttl time.Duration) (*ResultCache, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cache := NewResultCache(Config{Addr: fmt.Sprintf("%s:%s", host, port.Port()), TTL: ttl})
	require.NoError(t, cache.Ping(ctx))

	cleanup := func() {
		_ = cache.Close()
		_ = container.Terminate(ctx)
	}
	return cache, cleanup
}

func TestResultCache_RoundTrip(t *testing.T) {
	cache, cleanup := setupTestCache(t, time.Minute)
	defer cleanup()

	ctx := context.Background()
	r := &domain.SimulationResult{
		Scheme:          domain.SchemeAsync,
		Users:           100,
		TotalPayments:   42,
		TotalRevenueUSD: 0.042,
		P99LatencyMs:    812.5,
		Latencies:       []float64{50, 150},
	}

	require.NoError(t, cache.Set(ctx, "abc", r))

	got, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, r.Summary(), got)
}

func TestResultCache_MissAndDelete(t *testing.T) {
	cache, cleanup := setupTestCache(t, time.Minute)
	defer cleanup()

	ctx := context.Background()

	_, err := cache.Get(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, cache.Set(ctx, "k", &domain.SimulationResult{}))
	require.NoError(t, cache.Delete(ctx, "k"))
	require.NoError(t, cache.Delete(ctx, "k"))

	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResultCache_InvalidInput(t *testing.T) {
	cache := NewResultCache(Config{Addr: "localhost:0"})
	defer cache.Close()

	assert.ErrorIs(t, cache.Set(context.Background(), "", &domain.SimulationResult{}), storage.ErrInvalidInput)
	assert.ErrorIs(t, cache.Set(context.Background(), "k", nil), storage.ErrInvalidInput)
}
