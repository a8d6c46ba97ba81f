// Package redisad caches JSON-encoded review listings in Redis.
package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"review_hub/internal/adapters/observability"
)

const cacheName = "redis"

type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

// Ping reports whether the server answers; callers treat failure as "run uncached".
func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

// Get decodes the entry at key into dst. An entry that no longer decodes is
// dropped and reported as a miss.
func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheName, "miss")
		return false, nil
	}
	if err != nil {
		observability.ObserveCache(cacheName, "error")
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		_ = r.c.Del(ctx, key).Err()
		observability.ObserveCache(cacheName, "miss")
		return false, nil
	}
	observability.ObserveCache(cacheName, "hit")
	return true, nil
}

// Set stores v for ttlSec seconds; a non-positive ttl stores nothing.
func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if ttlSec <= 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache(cacheName, "set")
	return r.c.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	observability.ObserveCache(cacheName, "del")
	return r.c.Del(ctx, keys...).Err()
}

func (r *Cache) Close() error { return r.c.Close() }
