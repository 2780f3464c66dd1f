// Package backends opens the configured storage implementations.
// Any DSN left empty falls back to the in-memory store for that concern.
package backends

import (
	"context"
	"fmt"
	"time"

	"x402-lab/internal/storage"
	chstore "x402-lab/internal/storage/clickhouse"
	"x402-lab/internal/storage/memory"
	"x402-lab/internal/storage/migrations"
	"x402-lab/internal/storage/postgres"
	"x402-lab/internal/storage/redis"
)

// Options selects backends.
type Options struct {
	PostgresDSN   string
	ClickhouseDSN string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// Stores is the set of opened stores.
type Stores struct {
	Runs    storage.RunStore
	Samples storage.LatencySampleStore
	Cache   storage.ResultCache

	// Backend names, for logging and /status.
	RunBackend    string
	SampleBackend string
	CacheBackend  string

	closers []func()
}

// Close releases every opened connection in reverse order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open connects the configured backends and applies migrations.
// On error every connection opened so far is closed.
func Open(ctx context.Context, opts Options) (*Stores, error) {
	s := &Stores{}

	if opts.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgres(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.Runs = postgres.NewRunStore(pool)
		s.RunBackend = "postgres"
	} else {
		s.Runs = memory.NewRunStore()
		s.RunBackend = "memory"
	}

	if opts.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouse(ctx, opts.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })
		s.Samples = chstore.NewLatencySampleStore(conn)
		s.SampleBackend = "clickhouse"
	} else {
		s.Samples = memory.NewLatencySampleStore()
		s.SampleBackend = "memory"
	}

	if opts.RedisAddr != "" {
		cache := redis.NewResultCache(redis.Config{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			TTL:      opts.CacheTTL,
		})
		if err := cache.Ping(ctx); err != nil {
			_ = cache.Close()
			s.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = cache.Close() })
		s.Cache = cache
		s.CacheBackend = "redis"
	} else {
		s.Cache = memory.NewResultCache(opts.CacheTTL)
		s.CacheBackend = "memory"
	}

	return s, nil
}
