package geo

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spigell/candidate-matcher/internal/logger"
	"go.uber.org/zap"
)

// CommuteEstimate is only produced when both addresses resolved.
type CommuteEstimate struct {
	CandidateAddress  string      `json:"candidate_address"`
	CandidateCoords   Coordinates `json:"candidate_coords"`
	JobSiteAddress    string      `json:"job_site_address"`
	JobSiteCoords     Coordinates `json:"job_site_coords"`
	DistanceKm        float64     `json:"distance_km"`
	DistanceMiles     float64     `json:"distance_miles"`
	CalculationMethod string      `json:"calculation_method"`
	Commute
}

// Engine turns a pair of addresses into a commute estimate, consulting the
// cache before the provider.
type Engine struct {
	provider Provider
	cache    Cache
	logger   *zap.Logger
}

func NewEngine(provider Provider, cache Cache, log *zap.Logger) *Engine {
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheEntries, DefaultCacheTTL)
	}
	l := logger.OrNop(log)
	if provider != nil {
		l = logger.WithFields(l, logger.GeoFields(provider.Name())...)
	}
	return &Engine{provider: provider, cache: cache, logger: l}
}

// CacheStats reports lookup counters when the cache keeps them.
func (e *Engine) CacheStats() (CacheStats, bool) {
	r, ok := e.cache.(statsReporter)
	if !ok {
		return CacheStats{}, false
	}
	return r.Stats(), true
}

// Estimate resolves both addresses concurrently and classifies the distance.
// It returns ErrAddressMissing when either address is blank and a *GeocodeError
// when either side could not be resolved.
func (e *Engine) Estimate(ctx context.Context, candidateAddress, jobAddress string) (*CommuteEstimate, error) {
	if strings.TrimSpace(candidateAddress) == "" || strings.TrimSpace(jobAddress) == "" {
		return nil, ErrAddressMissing
	}

	var (
		wg              sync.WaitGroup
		candLoc, jobLoc *Location
		candErr, jobErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		candLoc, candErr = e.Resolve(ctx, candidateAddress)
	}()
	go func() {
		defer wg.Done()
		jobLoc, jobErr = e.Resolve(ctx, jobAddress)
	}()
	wg.Wait()

	if candErr != nil || jobErr != nil {
		gerr := &GeocodeError{Candidate: candErr, Job: jobErr}
		if candErr != nil {
			e.logger.Warn("geocoding failed", zap.String(logger.FieldSide, SideCandidate), zap.Error(candErr))
		}
		if jobErr != nil {
			e.logger.Warn("geocoding failed", zap.String(logger.FieldSide, SideJob), zap.Error(jobErr))
		}
		return nil, gerr
	}

	km := Haversine(candLoc.Coordinates, jobLoc.Coordinates)
	miles := km * MilesPerKm

	return &CommuteEstimate{
		CandidateAddress:  candidateAddress,
		CandidateCoords:   candLoc.Coordinates,
		JobSiteAddress:    jobAddress,
		JobSiteCoords:     jobLoc.Coordinates,
		DistanceKm:        round1(km),
		DistanceMiles:     round1(miles),
		CalculationMethod: CalculationMethod,
		Commute:           Classify(miles),
	}, nil
}

// Resolve geocodes a single address. On a provider failure it retries once with
// the last two comma separated segments. Only successes are cached.
func (e *Engine) Resolve(ctx context.Context, address string) (*Location, error) {
	if e.provider == nil {
		return nil, errors.New("no geocoding provider configured")
	}

	normalized := NormalizeAddress(address)
	if normalized == "" {
		return nil, ErrAddressMissing
	}
	if normalized != address {
		e.logger.Debug("normalized address", zap.String("from", address), zap.String("to", normalized))
	}

	key := CacheKey(normalized)
	if loc, ok := e.cache.Get(ctx, key); ok {
		e.logger.Debug("geocode cache hit", zap.String("address", normalized))
		return loc, nil
	}

	loc, err := e.provider.Resolve(ctx, normalized)
	if err != nil && ctx.Err() == nil {
		if simplified, ok := simplify(normalized); ok {
			e.logger.Debug("geocoding failed, retrying with simplified address",
				zap.String("address", normalized),
				zap.String("simplified", simplified),
				zap.Error(err),
			)
			loc, err = e.provider.Resolve(ctx, simplified)
		}
	}
	if err != nil {
		return nil, err
	}

	e.cache.Set(ctx, key, loc)
	return loc, nil
}
