package geo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func loc(lat, lng float64) *Location {
	return &Location{Coordinates: Coordinates{Lat: lat, Lng: lng}}
}

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Hour)

	if _, ok := c.Get(ctx, "austin"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set(ctx, "austin", loc(30.26, -97.74))
	got, ok := c.Get(ctx, "austin")
	if !ok || got.Lat != 30.26 {
		t.Fatalf("unexpected cache result %+v, %v", got, ok)
	}

	got.Lat = 0
	again, _ := c.Get(ctx, "austin")
	if again.Lat != 30.26 {
		t.Fatalf("cached entries must not be mutable through returned values")
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Size != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", loc(1, 1))
	now = now.Add(59 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatalf("expected entry before ttl")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be removed")
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Hour)

	c.Set(ctx, "a", loc(1, 1))
	c.Set(ctx, "b", loc(2, 2))
	c.Get(ctx, "a")
	c.Set(ctx, "c", loc(3, 3))

	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected a to survive")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatalf("expected c to be cached")
	}
}

func TestMemoryCacheConcurrentUse(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(100, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, "shared", loc(float64(i), 0))
			c.Get(ctx, "shared")
		}(i)
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Fatalf("expected a single shared entry, got %d", c.Len())
	}
}

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	c := NewRedisCache(store, time.Hour, zap.NewNop())

	c.Set(ctx, "austin, tx", &Location{Coordinates: Coordinates{Lat: 30.26, Lng: -97.74}, Provider: ProviderOpenCage})

	if store.ttls["geocode:austin, tx"] != time.Hour {
		t.Fatalf("expected prefixed key with ttl, got %v", store.ttls)
	}

	got, ok := c.Get(ctx, "austin, tx")
	if !ok || got.Lat != 30.26 || got.Provider != ProviderOpenCage {
		t.Fatalf("unexpected redis cache result %+v, %v", got, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestRedisCacheTreatsErrorsAsMisses(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	store.data["geocode:bad"] = "{not json"
	c := NewRedisCache(store, 0, nil)

	if _, ok := c.Get(ctx, "bad"); ok {
		t.Fatalf("expected corrupt entry to be a miss")
	}

	store.getErr = errors.New("connection reset")
	store.setErr = errors.New("connection reset")
	c.Set(ctx, "k", loc(1, 1))
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected redis errors to be misses")
	}
}

func TestTieredCacheBackfillsL1(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10, time.Hour)
	l2 := NewRedisCache(newFakeRedis(), time.Hour, nil)
	l2.Set(ctx, "k", loc(5, 6))

	c := NewTieredCache(l1, l2)
	got, ok := c.Get(ctx, "k")
	if !ok || got.Lat != 5 {
		t.Fatalf("expected l2 hit, got %+v, %v", got, ok)
	}
	if _, ok := l1.Get(ctx, "k"); !ok {
		t.Fatalf("expected l1 to be populated from l2")
	}

	c.Set(ctx, "n", loc(7, 8))
	if _, ok := l1.Get(ctx, "n"); !ok {
		t.Fatalf("expected write to l1")
	}
	if _, ok := l2.Get(ctx, "n"); !ok {
		t.Fatalf("expected write to l2")
	}
}

func TestTieredCacheReportsLocalTierStats(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10, time.Hour)
	l2 := NewRedisCache(newFakeRedis(), time.Hour, nil)
	c := NewTieredCache(l1, l2)

	c.Get(ctx, "k")
	c.Set(ctx, "k", loc(1, 2))
	c.Get(ctx, "k")

	if got := c.Stats(); got != (CacheStats{Hits: 1, Misses: 1, Size: 1}) {
		t.Fatalf("unexpected stats %+v", got)
	}
	if got := NewTieredCache(l2, nil).Stats(); got != (CacheStats{}) {
		t.Fatalf("expected empty stats without a counting tier, got %+v", got)
	}
}
