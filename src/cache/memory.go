package cache

import (
	"context"
	"sync"
	"time"

	"wealthpilot-market/src/interfaces"
)

// TTLs holds one duration per cache operation class.
type TTLs struct {
	Quote      time.Duration
	Historical time.Duration
	Profile    time.Duration
}

func (t TTLs) ForClass(class string) time.Duration {
	switch class {
	case interfaces.CacheClassQuote:
		return t.Quote
	case interfaces.CacheClassHistorical:
		return t.Historical
	case interfaces.CacheClassProfile:
		return t.Profile
	}
	return t.Quote
}

// -----------------------------------------------------------------------------

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded map with lazy expiry: expired entries are
// treated as absent on read and overwritten on write. The symbol universe
// is small, so no eviction beyond TTL is needed.
type MemoryCache struct {
	ttls    TTLs
	entries map[string]entry
	now     func() time.Time
	mu      sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMemoryCache(ttls TTLs) *MemoryCache {
	return &MemoryCache{
		ttls:    ttls,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewMemoryCacheWithClock injects a clock for deterministic expiry tests.
func NewMemoryCacheWithClock(ttls TTLs, now func() time.Time) *MemoryCache {
	c := NewMemoryCache(ttls)
	c.now = now
	return c
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.payload, true
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Put(_ context.Context, key string, payload []byte, class string) error {
	c.mu.Lock()
	c.entries[key] = entry{
		payload:   payload,
		expiresAt: c.now().Add(c.ttls.ForClass(class)),
	}
	c.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}
