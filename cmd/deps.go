package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/candidate-matcher/internal/ai"
	"github.com/spigell/candidate-matcher/internal/ai/gemini"
	"github.com/spigell/candidate-matcher/internal/ai/openai"
	"github.com/spigell/candidate-matcher/internal/geo"
	"github.com/spigell/candidate-matcher/internal/secrets"
)

// newCompleter builds the completion backend selected by ai.provider.
func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	opts := ai.Options{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", ai.ProviderGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		generator, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:     apiKey,
			Model:      cfg.Gemini.Model,
			MaxRetries: cfg.Gemini.MaxRetries,
			Options:    opts,
		}, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case ai.ProviderOpenAI:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: cfg.OpenAI.APIKeyFile,
			Env:  "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
		}

		client, err := openai.New(openai.Config{
			APIKey:     apiKey,
			Model:      cfg.OpenAI.Model,
			BaseURL:    cfg.OpenAI.BaseURL,
			MaxRetries: cfg.OpenAI.MaxRetries,
			Options:    opts,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func logCacheStats(engine *geo.Engine, logger *zap.Logger) {
	stats, ok := engine.CacheStats()
	if !ok {
		return
	}
	logger.Debug("geocode cache stats",
		zap.Int64("hits", stats.Hits),
		zap.Int64("misses", stats.Misses),
		zap.Int("size", stats.Size),
	)
}

// newGeoEngine builds the distance engine with its provider and cache tiers.
// A redis tier that cannot be reached is skipped with a warning.
func newGeoEngine(ctx context.Context, cfg *GeoConfig, logger *zap.Logger) (*geo.Engine, error) {
	openCageKey, err := secrets.Optional(secrets.Source{
		Name: "opencage api key",
		File: cfg.OpenCage.APIKeyFile,
		Env:  "OPENCAGE_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	provider, err := geo.NewProvider(geo.ProviderConfig{
		Name:           cfg.Provider,
		OpenCageKey:    openCageKey,
		OpenCageURL:    cfg.OpenCage.URL,
		UserAgent:      cfg.Nominatim.UserAgent,
		NominatimURL:   cfg.Nominatim.URL,
		NominatimDelay: cfg.Nominatim.Delay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("geocoding provider: %w", err)
	}

	var cache geo.Cache = geo.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	if url := strings.TrimSpace(cfg.Cache.RedisURL); url != "" {
		rdb, err := geo.NewRedisClient(ctx, url)
		if err != nil {
			logger.Warn("geocode cache: redis tier disabled", zap.Error(err))
		} else {
			cache = geo.NewTieredCache(cache, geo.NewRedisCache(rdb, cfg.Cache.TTL, logger))
			logger.Info("geocode cache: redis tier enabled")
		}
	}

	logger.Info("geocoding configured", zap.String("provider", provider.Name()))

	return geo.NewEngine(provider, cache, logger), nil
}
