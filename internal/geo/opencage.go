package geo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/candidate-matcher/internal/logger"
	"go.uber.org/zap"
)

const openCageURL = "https://api.opencagedata.com/geocode/v1/json"

type OpenCageConfig struct {
	APIKey  string
	BaseURL string
}

// OpenCage is the paid geocoding tier. It has no artificial delay.
type OpenCage struct {
	http    httpClient
	apiKey  string
	baseURL string
}

type openCageResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Formatted  string  `json:"formatted"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

func NewOpenCage(cfg OpenCageConfig, log *zap.Logger) (*OpenCage, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("opencage api key is required")
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = openCageURL
	}

	l := logger.WithFields(log, logger.GeoFields(ProviderOpenCage)...)

	return &OpenCage{
		http:    newHTTPClient("", l),
		apiKey:  key,
		baseURL: base,
	}, nil
}

func (o *OpenCage) Name() string { return ProviderOpenCage }

func (o *OpenCage) Resolve(ctx context.Context, address string) (*Location, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("key", o.apiKey)
	q.Set("limit", "1")
	q.Set("no_annotations", "1")

	var resp openCageResponse
	if err := o.http.getJSON(ctx, o.baseURL, q, &resp); err != nil {
		return nil, fmt.Errorf("opencage: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}

	r := resp.Results[0]
	return &Location{
		Coordinates:      Coordinates{Lat: r.Geometry.Lat, Lng: r.Geometry.Lng},
		FormattedAddress: r.Formatted,
		Confidence:       r.Confidence,
		Provider:         ProviderOpenCage,
	}, nil
}
