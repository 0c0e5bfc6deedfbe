package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evcraddock/keyswap/internal/metrics"
)

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	// Get decodes the value at key into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	c *redis.Client
}

// NewRedisCache connects to the Redis server at addr.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{c: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.c.Close()
}

func (r *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		metrics.ObserveCache("redis", "error")
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	metrics.ObserveCache("redis", "hit")
	if err := json.Unmarshal(v, dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := r.c.Set(ctx, key, b, ttl).Err(); err != nil {
		metrics.ObserveCache("redis", "error")
		return fmt.Errorf("writing %s: %w", key, err)
	}
	metrics.ObserveCache("redis", "set")
	return nil
}
