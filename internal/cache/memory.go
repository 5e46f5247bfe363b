package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Verdict entries live long enough to cover a full revision loop plus a
// re-audit of the same document, and no longer. A longer TTL would let a
// corrected source file keep serving the stale verdict.
const (
	VerdictTTL      = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// MemoryCache is a TTL keyed byte cache backed by go-cache. Verdicts go
// in as marshalled JSON under Key-built identifiers.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewVerdictCache creates the cache the matcher stores judge verdicts in.
func NewVerdictCache() *MemoryCache {
	return NewMemoryCache(VerdictTTL, cleanupInterval)
}

// NewMemoryCache creates a memory cache with the given default TTL.
func NewMemoryCache(defaultTTL time.Duration, cleanup time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanup),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value under the given TTL. A non-positive TTL falls back
// to the cache default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
