package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linkbridge/linkbridge/internal/metrics"
)

const keyPrefix = "lb:link:"

// RedisCache shares lookups across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores entries as JSON under the lb:link: prefix. A zero ttl
// keeps them until evicted.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Dial connects to addr and pings it so a misconfigured cache fails at startup.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Get reports redis.Nil as a miss. Connection and decode failures are errors.
func (r *RedisCache) Get(ctx context.Context, token string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveCacheLookup("l2", "miss")
		return Entry{}, false, nil
	}
	if err != nil {
		metrics.ObserveCacheLookup("l2", "error")
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		metrics.ObserveCacheLookup("l2", "error")
		return Entry{}, false, fmt.Errorf("decode cached link: %w", err)
	}
	metrics.ObserveCacheLookup("l2", "hit")
	return e, true, nil
}

// Set writes e with the cache ttl.
func (r *RedisCache) Set(ctx context.Context, token string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cached link: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+token, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
