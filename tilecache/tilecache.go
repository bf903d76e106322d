// Package tilecache provides an in-memory LRU cache for fetched tile
// payloads, so tiles pruned from the grid can re-display without another
// network round trip.
package tilecache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is an LRU over encoded tile images keyed by tile key. Safe for
// concurrent use.
type Cache struct {
	lru    *lru.Cache[string, []byte]
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding up to maxEntries tiles
func New(maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("tilecache: maxEntries must be positive, got %d", maxEntries)
	}
	inner, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("tilecache: %w", err)
	}
	return &Cache{lru: inner}, nil
}

// Get retrieves a tile payload, marking it most recently used
func (c *Cache) Get(key string) ([]byte, bool) {
	data, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return data, ok
}

// Set stores a tile payload, evicting the least recently used entry when
// full
func (c *Cache) Set(key string, data []byte) {
	c.lru.Add(key, data)
}

// Remove drops a tile payload if present
func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

// Clear drops every cached payload
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len returns the number of cached payloads
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Stats returns cache statistics
func (c *Cache) Stats() (entries int, hits, misses int64) {
	return c.lru.Len(), c.hits.Load(), c.misses.Load()
}
