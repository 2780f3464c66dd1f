// Package redis provides a Redis-backed result cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"x402-lab/internal/domain"
	"x402-lab/internal/storage"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "x402lab:result:"

// Config for creating a Redis result cache.
type Config struct {
	Addr     string        // Redis address (e.g., "localhost:6379")
	Password string        // empty for no auth
	DB       int           // Redis database number
	TTL      time.Duration // default: 1 hour
}

// ResultCache implements storage.ResultCache using Redis.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ storage.ResultCache = (*ResultCache)(nil)

// NewResultCache creates a Redis-backed cache. It does not dial; use Ping.
func NewResultCache(cfg Config) *ResultCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &ResultCache{client: client, ttl: ttl}
}

// Get returns the cached summary. Returns ErrNotFound on a miss.
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.SimulationResult, error) {
	val, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var r domain.SimulationResult
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &r, nil
}

// Set stores a summary. Latencies are dropped by the json encoding.
func (c *ResultCache) Set(ctx context.Context, key string, r *domain.SimulationResult) error {
	if key == "" || r == nil {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if err := c.client.Set(ctx, KeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key.
func (c *ResultCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks if the Redis connection is alive.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
