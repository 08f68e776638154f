package cache

import (
	"sync"
	"time"
)

type item struct {
	body      []byte
	expiresAt time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// TTLCache is an in-process BytesCache. Expired entries are dropped lazily
// on read, so memory is bounded by the working set of distinct keys.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]item
}

func NewTTLCache() *TTLCache {
	return &TTLCache{items: make(map[string]item)}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if it.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock in case the entry was refreshed.
		if cur, ok := c.items[key]; ok && cur.expired(time.Now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return it.body, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item{body: value, expiresAt: exp}
	c.mu.Unlock()
	return nil
}

var _ BytesCache = (*TTLCache)(nil)
