// Package source builds the configured provider with its decorators.
package source

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"analystprovider/internal/config"
	"analystprovider/internal/httpx"
	"analystprovider/internal/provider"
	"analystprovider/internal/provider/cache"
	"analystprovider/internal/provider/finnhub"
	"analystprovider/internal/provider/finnhubadapter"
	"analystprovider/internal/provider/fixture"
	"analystprovider/internal/provider/logged"
	"analystprovider/internal/provider/metrics"
	"analystprovider/internal/provider/ratelimit"
)

var ErrNoAPIKey = errors.New("finnhub api key not set (FINNHUB_API_KEY)")

// Build returns the provider selected by cfg.Source. Upstream calls are
// measured by rec when it is non-nil and logged by log. Finnhub calls are
// additionally rate limited and cached as configured.
func Build(cfg config.Config, log zerolog.Logger, rec *metrics.Recorder) (provider.Provider, error) {
	switch cfg.Source {
	case config.SourceFixture:
		fx, err := fixture.LoadFile("Fixture", cfg.Fixture.Path)
		if err != nil {
			return nil, err
		}
		return instrument(fx, log, rec), nil
	case config.SourceFinnhub, "":
		return buildFinnhub(cfg, log, rec)
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func buildFinnhub(cfg config.Config, log zerolog.Logger, rec *metrics.Recorder) (provider.Provider, error) {
	fc := cfg.Finnhub
	if fc.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	client, err := finnhub.NewFinnhubAPIClient(
		fc.APIKey,
		finnhub.WithBaseURL(fc.BaseURL),
		finnhub.WithHTTPClient(httpClient),
		finnhub.WithHeader(http.Header{"User-Agent": []string{httpx.DefaultUserAgent}}),
	)
	if err != nil {
		return nil, fmt.Errorf("finnhub client: %w", err)
	}

	var p provider.Provider = finnhubadapter.New(finnhubadapter.Config{
		Name:              "Finnhub",
		EPSFrequency:      fc.EPSFrequency,
		ReportHorizonDays: fc.ReportHorizonDays,
	}, client)
	p = instrument(p, log, rec)

	// Prefer token bucket with burst if RPM is set, otherwise use min-interval
	if fc.MaxRequestsPerMinute > 0 {
		p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.PerMinute(fc.MaxRequestsPerMinute, fc.Burst)}
	} else if fc.MinRequestIntervalSec > 0 {
		p = &ratelimit.MinInterval{P: p, Interval: time.Duration(fc.MinRequestIntervalSec) * time.Second}
	}
	if fc.CacheTTLSeconds > 0 {
		p = &cache.Provider{P: p, TTL: time.Duration(fc.CacheTTLSeconds) * time.Second, MaxItems: fc.CacheMaxItems}
	}
	return p, nil
}

func instrument(p provider.Provider, log zerolog.Logger, rec *metrics.Recorder) provider.Provider {
	if rec != nil {
		p = &metrics.Provider{P: p, R: rec}
	}
	return &logged.Provider{P: p, Log: log}
}
