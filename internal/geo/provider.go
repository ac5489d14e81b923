package geo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/candidate-matcher/internal/logger"
	"go.uber.org/zap"
)

const (
	ProviderOpenCage  = "opencage"
	ProviderNominatim = "nominatim"
)

// Provider resolves a free-text address into coordinates.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, address string) (*Location, error)
}

// ProviderConfig selects and configures the geocoding backend.
type ProviderConfig struct {
	// Name is "opencage", "nominatim" or empty to pick opencage when a key is set.
	Name           string
	OpenCageKey    string
	OpenCageURL    string
	UserAgent      string
	NominatimURL   string
	NominatimDelay time.Duration
}

// NewProvider builds the configured provider. It is called once at start.
func NewProvider(cfg ProviderConfig, log *zap.Logger) (Provider, error) {
	log = logger.OrNop(log)

	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		if strings.TrimSpace(cfg.OpenCageKey) != "" {
			name = ProviderOpenCage
		} else {
			name = ProviderNominatim
			log.Warn("opencage api key not found, using nominatim; limited to 1 request per second")
		}
	}

	switch name {
	case ProviderOpenCage:
		return NewOpenCage(OpenCageConfig{APIKey: cfg.OpenCageKey, BaseURL: cfg.OpenCageURL}, log)
	case ProviderNominatim:
		return NewNominatim(NominatimConfig{UserAgent: cfg.UserAgent, BaseURL: cfg.NominatimURL, Delay: cfg.NominatimDelay}, log), nil
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", cfg.Name)
	}
}
