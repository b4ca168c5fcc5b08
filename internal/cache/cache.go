// Package cache is a process-wide key/value store with per-entry expiry.
//
// Entries expire lazily on read; there is no background sweep. Concurrent
// requests may race to repopulate the same key, which is acceptable (last
// write wins, values are cheap to recompute). The cache is an injected
// dependency, never a package singleton.
package cache

import (
	"strings"
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{entries: map[string]entry{}, now: time.Now}
}

func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, replacing the whole entry atomically.
// A non-positive ttl falls back to DefaultTTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
}

// GetAs reads key and asserts the stored value to T. A stored value of the
// wrong type behaves like a miss.
func GetAs[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// TopicKey derives the cache key for topic-scoped KB data.
func TopicKey(topic, kind string) string {
	return "kb:topic:" + strings.TrimSpace(topic) + ":" + strings.TrimSpace(kind)
}

// DraftKey derives a stable key for caching copywriter drafts per
// (query, intent) pair.
func DraftKey(query, intent string) string {
	key := strings.ToLower(strings.TrimSpace(query) + ":" + strings.TrimSpace(intent))
	key = strings.Join(strings.Fields(key), "-")
	return "kb:draft:" + key
}

// PageKey derives the key for caching assembled page documents, scoped by the
// draft the page was built from.
func PageKey(draftKey string) string {
	return draftKey + ":pagejson"
}
