package geo

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultCacheEntries = 10000
	DefaultCacheTTL     = 30 * 24 * time.Hour
)

// Cache maps a cache key (see CacheKey) to a resolved location. Only
// successful resolutions are ever stored.
type Cache interface {
	Get(ctx context.Context, key string) (*Location, bool)
	Set(ctx context.Context, key string, loc *Location)
}

// CacheStats counts lookups for diagnostics.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

type statsReporter interface {
	Stats() CacheStats
}

// MemoryCache is a bounded LRU with a per-entry TTL. It is safe for concurrent use.
type MemoryCache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	ll         *list.List
	items      map[string]*list.Element
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryEntry struct {
	key       string
	loc       Location
	expiresAt time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries locations for ttl.
// Non-positive values fall back to the defaults; a negative ttl disables expiry.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	entry := el.Value.(*memoryEntry)
	if c.ttl > 0 && !c.now().Before(entry.expiresAt) {
		c.removeElement(el)
		c.misses.Add(1)
		return nil, false
	}

	c.ll.MoveToFront(el)
	c.hits.Add(1)
	loc := entry.loc
	return &loc, true
}

func (c *MemoryCache) Set(_ context.Context, key string, loc *Location) {
	if loc == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.loc = *loc
		entry.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&memoryEntry{key: key, loc: *loc, expiresAt: expiresAt})
	for c.ll.Len() > c.maxEntries {
		c.removeElement(c.ll.Back())
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *MemoryCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.Len()}
}

func (c *MemoryCache) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*memoryEntry).key)
}

// TieredCache reads through a fast local tier to a shared one and back-fills
// the local tier on a shared hit.
type TieredCache struct {
	l1 Cache
	l2 Cache
}

func NewTieredCache(l1, l2 Cache) *TieredCache {
	return &TieredCache{l1: l1, l2: l2}
}

func (c *TieredCache) Get(ctx context.Context, key string) (*Location, bool) {
	if c.l1 != nil {
		if loc, ok := c.l1.Get(ctx, key); ok {
			return loc, true
		}
	}
	if c.l2 == nil {
		return nil, false
	}

	loc, ok := c.l2.Get(ctx, key)
	if !ok {
		return nil, false
	}
	if c.l1 != nil {
		c.l1.Set(ctx, key, loc)
	}
	return loc, true
}

// Stats reports the local tier, which sees every lookup.
func (c *TieredCache) Stats() CacheStats {
	if r, ok := c.l1.(statsReporter); ok {
		return r.Stats()
	}
	return CacheStats{}
}

func (c *TieredCache) Set(ctx context.Context, key string, loc *Location) {
	if c.l1 != nil {
		c.l1.Set(ctx, key, loc)
	}
	if c.l2 != nil {
		c.l2.Set(ctx, key, loc)
	}
}
