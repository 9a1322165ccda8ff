package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/estatelens/backend/internal/domain"
)

// entry is a single cached prediction with its expiry.
type entry struct {
	value   interface{}
	expires time.Time
}

// MemoryCache is a thread-safe in-memory TTL cache used to reuse predictions
// for identical requests against one model version.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]entry
	stop chan struct{}
}

// NewMemoryCache creates a memory cache and starts its expiry janitor.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]entry),
		stop: make(chan struct{}),
	}
	go c.janitor(10 * time.Minute)
	return c
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || time.Now().After(e.expires) {
		return nil, domain.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value with a TTL. Values are round-tripped through JSON so a
// later Get returns a detached copy, the same shape a Redis backend would
// give back.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var stored interface{}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{value: stored, expires: time.Now().Add(ttl)}
	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Exists reports whether a key is present and unexpired.
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	return ok && !time.Now().After(e.expires), nil
}

// Size returns the current number of entries, expired or not.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Close stops the expiry janitor.
func (c *MemoryCache) Close() {
	close(c.stop)
}

// janitor evicts expired entries on an interval.
func (c *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.data {
				if now.After(e.expires) {
					delete(c.data, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
