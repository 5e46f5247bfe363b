// Package cache provides the in-memory verdict cache used to keep claim
// validation idempotent: judging the same claim against the same record
// twice yields the same verdict without a second engine call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a stable cache key from the given parts.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "marketbrief:v1:" + hex.EncodeToString(h.Sum(nil))
}
