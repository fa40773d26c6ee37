package cache

import (
	"sync"
	"time"
)

// Entry pairs a cached value with its expiry
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// Cache is a simple in-memory cache with TTL, used for read-heavy listings
// such as properties. Writes must invalidate the relevant prefix.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Entry
}

// New returns an empty cache
func New() *Cache {
	return &Cache{items: map[string]*Entry{}}
}

// Set stores value under key until ttl elapses
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &Entry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Get returns the live value for key. Expired entries read as absent; they
// are overwritten by the next Set rather than swept.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// Delete drops a single key
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear drops everything
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]*Entry{}
}

// Invalidate drops every key under prefix. Property and roster writes call
// this so the next listing reads fresh rows.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
		}
	}
}
