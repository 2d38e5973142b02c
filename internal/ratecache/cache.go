// Package ratecache is an in-process key/value cache with expiry,
// wrapping a patrickmn/go-cache instance the same way the teacher's
// main.go wires one ("reportCache") into its upload service. It stores
// arbitrary values under caller-chosen keys; no command or other package
// in this repository calls it, so neither FX lookups nor reports are
// memoized.
package ratecache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultExpiration is how long a cached report stays valid before a
// fresh computation is required.
const DefaultExpiration = 15 * time.Minute

// CleanupInterval is how often the underlying cache purges expired
// entries.
const CleanupInterval = 30 * time.Minute

// Cache wraps go-cache with the narrow Get/Set surface this codebase
// needs, so callers never depend on the underlying library directly.
type Cache struct {
	inner *cache.Cache
}

// New builds a Cache with the package defaults.
func New() *Cache {
	return &Cache{inner: cache.New(DefaultExpiration, CleanupInterval)}
}

// NewWithTTL builds a Cache with a caller-chosen expiration, keeping the
// default cleanup cadence.
func NewWithTTL(expiration time.Duration) *Cache {
	return &Cache{inner: cache.New(expiration, CleanupInterval)}
}

// Get returns the cached value for key and reports whether it was
// present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	return c.inner.Get(key)
}

// Set stores value under key using the cache's default expiration.
func (c *Cache) Set(key string, value any) {
	c.inner.SetDefault(key, value)
}

// Invalidate removes a single cached entry, e.g. after a re-ingest makes
// a previously computed report stale.
func (c *Cache) Invalidate(key string) {
	c.inner.Delete(key)
}

// Flush clears every cached entry.
func (c *Cache) Flush() {
	c.inner.Flush()
}

// ItemCount reports how many entries are currently cached (including
// ones pending cleanup), useful for a CLI's diagnostic output.
func (c *Cache) ItemCount() int {
	return c.inner.ItemCount()
}
