package utils

import (
	"context"       // Cache interface signature
	"encoding/json" // JSON encoding/decoding
	"time"          // Entry lifetimes

	"github.com/dgraph-io/ristretto" // In-process TTL cache
)

// LocalCache is an in-process Cache, used when no Redis server is configured.
// Values are stored JSON encoded so that Get behaves exactly like RedisCache.
type LocalCache struct {
	c *ristretto.Cache
}

// NewLocalCache returns a LocalCache holding at most maxCost bytes of values.
func NewLocalCache(maxCost int64) (*LocalCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{c: c}, nil
}

// Get reads key into dest, reporting whether it was present
func (l *LocalCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

// Set stores value under key for ttl, zero ttl keeps it until evicted
func (l *LocalCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	l.c.SetWithTTL(key, b, int64(len(b)), ttl)
	l.c.Wait() // make the write visible to the next Get
	return nil
}

// Delete removes keys
func (l *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		l.c.Del(k)
	}
	return nil
}

// Close stops the cache's background goroutines.
func (l *LocalCache) Close() { l.c.Close() }
