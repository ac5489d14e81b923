package geo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubProvider struct {
	mu      sync.Mutex
	results map[string]Coordinates
	calls   map[string]int
}

func newStubProvider(results map[string]Coordinates) *stubProvider {
	return &stubProvider{results: results, calls: map[string]int{}}
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Resolve(_ context.Context, address string) (*Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[address]++
	c, ok := s.results[address]
	if !ok {
		return nil, ErrNotFound
	}
	return &Location{Coordinates: c, Provider: "stub"}, nil
}

func (s *stubProvider) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.calls {
		n += v
	}
	return n
}

const (
	austinHome   = "100 Main St, Austin, TX 78701"
	austinOffice = "500 Congress Ave, Austin, TX 78701"
)

func austinProvider() *stubProvider {
	return newStubProvider(map[string]Coordinates{
		austinHome:   {Lat: 30.2430, Lng: -97.7600},
		austinOffice: {Lat: 30.2669, Lng: -97.7428},
	})
}

func TestEstimateAustinCommute(t *testing.T) {
	e := NewEngine(austinProvider(), nil, zap.NewNop())

	est, err := e.Estimate(context.Background(), austinHome, austinOffice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.DistanceMiles <= 0 || est.DistanceMiles >= 5 {
		t.Fatalf("expected a short commute, got %.1f miles", est.DistanceMiles)
	}
	if !est.Reasonable || est.Tier != TierShort {
		t.Fatalf("expected a short, reasonable commute, got %+v", est.Commute)
	}
	if est.CalculationMethod != CalculationMethod {
		t.Fatalf("unexpected calculation method %q", est.CalculationMethod)
	}
	if est.DistanceKm != round1(est.DistanceKm) || est.DistanceMiles != round1(est.DistanceMiles) {
		t.Fatalf("distances must be rounded to one decimal: %+v", est)
	}
}

func TestEstimateIsSymmetric(t *testing.T) {
	e := NewEngine(austinProvider(), nil, nil)
	ctx := context.Background()

	a, err := e.Estimate(ctx, austinHome, austinOffice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := e.Estimate(ctx, austinOffice, austinHome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.DistanceKm != b.DistanceKm || a.DistanceMiles != b.DistanceMiles {
		t.Fatalf("expected symmetric distances, got %v and %v", a.DistanceKm, b.DistanceKm)
	}
}

func TestEstimateRequiresBothAddresses(t *testing.T) {
	p := austinProvider()
	e := NewEngine(p, nil, nil)

	for _, pair := range [][2]string{{"", austinOffice}, {austinHome, "   "}, {"", ""}} {
		if _, err := e.Estimate(context.Background(), pair[0], pair[1]); !errors.Is(err, ErrAddressMissing) {
			t.Fatalf("expected ErrAddressMissing for %q, got %v", pair, err)
		}
	}
	if p.total() != 0 {
		t.Fatalf("expected no provider calls, got %d", p.total())
	}
}

func TestResolveUsesCache(t *testing.T) {
	p := austinProvider()
	e := NewEngine(p, NewMemoryCache(10, time.Hour), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := e.Resolve(ctx, austinHome); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := e.Resolve(ctx, "100 MAIN ST,  Austin, TX 78701"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.total() != 1 {
		t.Fatalf("expected a single provider call, got %d", p.total())
	}
}

func TestResolveNormalizesBeforeLookup(t *testing.T) {
	p := austinProvider()
	e := NewEngine(p, nil, nil)

	loc, err := e.Resolve(context.Background(), "500 Congress Ave, Suite 200, Austin, TX 78701")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Lat != 30.2669 {
		t.Fatalf("unexpected location %+v", loc)
	}
	if p.calls[austinOffice] != 1 {
		t.Fatalf("expected provider to see the normalized address, got %v", p.calls)
	}
}

func TestResolveRetriesWithSimplifiedAddress(t *testing.T) {
	p := newStubProvider(map[string]Coordinates{
		"Austin, TX 78701": {Lat: 30.27, Lng: -97.74},
	})
	e := NewEngine(p, nil, nil)

	loc, err := e.Resolve(context.Background(), "9999 Unknown Rd, Austin, TX 78701")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Lat != 30.27 {
		t.Fatalf("unexpected location %+v", loc)
	}
	if p.calls["9999 Unknown Rd, Austin, TX 78701"] != 1 || p.calls["Austin, TX 78701"] != 1 {
		t.Fatalf("expected full then simplified lookup, got %v", p.calls)
	}
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	p := newStubProvider(map[string]Coordinates{})
	cache := NewMemoryCache(10, time.Hour)
	e := NewEngine(p, cache, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := e.Resolve(ctx, "Nowhere"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if p.calls["Nowhere"] != 2 {
		t.Fatalf("expected provider to be asked again after a failure, got %v", p.calls)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected nothing cached, got %d entries", cache.Len())
	}
}

func TestEstimateReportsFailingSide(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewEngine(austinProvider(), nil, zap.New(core))

	_, err := e.Estimate(context.Background(), austinHome, "Atlantis")
	var gerr *GeocodeError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GeocodeError, got %v", err)
	}
	if gerr.Candidate != nil || gerr.Job == nil {
		t.Fatalf("expected only the job side to fail, got %+v", gerr)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped ErrNotFound, got %v", err)
	}

	entries := logs.FilterMessage("geocoding failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one geocoding warning, got %d", len(entries))
	}
	if side := entries[0].ContextMap()["side"]; side != SideJob {
		t.Fatalf("expected side=job, got %v", side)
	}
	if provider := entries[0].ContextMap()["geo_provider"]; provider != "stub" {
		t.Fatalf("expected geo_provider field, got %v", provider)
	}
}

func TestEstimateBothSidesFail(t *testing.T) {
	e := NewEngine(newStubProvider(nil), nil, nil)

	_, err := e.Estimate(context.Background(), "Atlantis", "El Dorado")
	var gerr *GeocodeError
	if !errors.As(err, &gerr) || gerr.Candidate == nil || gerr.Job == nil {
		t.Fatalf("expected both sides to fail, got %v", err)
	}
}

type uncountedCache struct{ Cache }

func TestEngineCacheStats(t *testing.T) {
	e := NewEngine(austinProvider(), NewMemoryCache(10, time.Hour), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := e.Resolve(ctx, austinHome); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stats, ok := e.CacheStats()
	if !ok {
		t.Fatalf("expected stats from the memory cache")
	}
	if stats.Hits != 2 || stats.Misses != 1 || stats.Size != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	plain := NewEngine(austinProvider(), uncountedCache{NewMemoryCache(10, time.Hour)}, nil)
	if _, ok := plain.CacheStats(); ok {
		t.Fatalf("expected no stats from a cache without counters")
	}
}
