package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/linkbridge/linkbridge/internal/metrics"
)

// LocalCache is an in-process ristretto cache, bounded by entry count.
type LocalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLocalCache sizes the cache for maxItems entries, each costing 1.
func NewLocalCache(maxItems int64, ttl time.Duration) (*LocalCache, error) {
	if maxItems <= 0 {
		maxItems = 10000
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create local cache: %w", err)
	}
	return &LocalCache{cache: c, ttl: ttl}, nil
}

// Get returns the entry for token if ristretto still holds it.
func (l *LocalCache) Get(_ context.Context, token string) (Entry, bool, error) {
	if v, ok := l.cache.Get(token); ok {
		if e, ok := v.(Entry); ok {
			metrics.ObserveCacheLookup("l1", "hit")
			return e, true, nil
		}
	}
	metrics.ObserveCacheLookup("l1", "miss")
	return Entry{}, false, nil
}

// Set is asynchronous: ristretto may admit or drop the entry shortly after.
func (l *LocalCache) Set(_ context.Context, token string, e Entry) error {
	if l.ttl > 0 {
		l.cache.SetWithTTL(token, e, 1, l.ttl)
	} else {
		l.cache.Set(token, e, 1)
	}
	return nil
}

// Wait blocks until pending writes are applied.
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

// Close stops the ristretto goroutines. The cache is unusable afterwards.
func (l *LocalCache) Close() {
	l.cache.Close()
}
