package geo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/candidate-matcher/internal/logger"
	"github.com/spigell/candidate-matcher/internal/utils"
	"go.uber.org/zap"
)

const (
	nominatimURL      = "https://nominatim.openstreetmap.org/search"
	nominatimMinDelay = time.Second
	defaultUserAgent  = "spigell/candidate-matcher"
)

type NominatimConfig struct {
	UserAgent string
	BaseURL   string
	// Delay precedes every request. Values under one second are raised to one second.
	Delay time.Duration
}

// Nominatim is the free OpenStreetMap geocoder. Its usage policy allows one
// request per second, so every call waits first.
type Nominatim struct {
	http    httpClient
	baseURL string
	delay   time.Duration
	wait    func(ctx context.Context, d time.Duration) error
}

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

func NewNominatim(cfg NominatimConfig, log *zap.Logger) *Nominatim {
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = nominatimURL
	}
	delay := cfg.Delay
	if delay < nominatimMinDelay {
		delay = nominatimMinDelay
	}

	l := logger.WithFields(log, logger.GeoFields(ProviderNominatim)...)

	return &Nominatim{
		http:    newHTTPClient(ua, l),
		baseURL: base,
		delay:   delay,
		wait:    utils.WaitFor,
	}
}

func (n *Nominatim) Name() string { return ProviderNominatim }

func (n *Nominatim) Resolve(ctx context.Context, address string) (*Location, error) {
	if err := n.wait(ctx, n.delay); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []nominatimResult
	if err := n.http.getJSON(ctx, n.baseURL, q, &results); err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}

	r := results[0]
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: bad latitude %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: bad longitude %q: %w", r.Lon, err)
	}

	return &Location{
		Coordinates:      Coordinates{Lat: lat, Lng: lng},
		FormattedAddress: r.DisplayName,
		Confidence:       r.Importance,
		Provider:         ProviderNominatim,
	}, nil
}
