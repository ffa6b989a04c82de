package marketdata

import (
	"encoding/json"
	"sync"
	"time"
)

// ttlCache is a read-through cache keyed by endpoint+params. Expiry is
// checked on read; stale entries are silently overwritten on the next
// write, never proactively swept.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	data     json.RawMessage
	storedAt time.Time
	ttl      time.Duration
}

func newTTLCache() *ttlCache {
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *ttlCache) get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= e.ttl {
		return nil, false
	}
	return e.data, true
}

func (c *ttlCache) set(key string, data json.RawMessage, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, storedAt: c.now(), ttl: ttl}
}

func (c *ttlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
