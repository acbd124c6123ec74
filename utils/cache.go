package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// LocalCache is an in-process LRU with optional per-entry expiry.
type LocalCache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
}

// NewLocalCache creates a cache holding at most size entries.
func NewLocalCache[V any](size int) (*LocalCache[V], error) {
	if size <= 0 {
		size = 16
	}
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &LocalCache[V]{lruCache: l}, nil
}

// Set stores a value. A ttl <= 0 never expires.
func (c *LocalCache[V]) Set(key string, value V, ttl time.Duration) {
	item := cacheItem[V]{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	c.lruCache.Add(key, item)
}

// Get returns the value for key if present and not expired.
func (c *LocalCache[V]) Get(key string) (V, bool) {
	var zero V
	item, ok := c.lruCache.Get(key)
	if !ok {
		return zero, false
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.lruCache.Remove(key)
		return zero, false
	}
	return item.value, true
}

// Remove drops a single key.
func (c *LocalCache[V]) Remove(key string) {
	c.lruCache.Remove(key)
}

// Purge drops every key.
func (c *LocalCache[V]) Purge() {
	c.lruCache.Purge()
}
