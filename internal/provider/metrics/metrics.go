// Package metrics instruments provider calls with Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeAbsent = "absent"
)

// Recorder holds the provider call metrics.
type Recorder struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New registers the metrics with reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyst_provider_requests_total",
				Help: "Total number of provider calls by outcome",
			},
			[]string{"provider", "op", "outcome"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyst_provider_request_duration_seconds",
				Help:    "Duration of provider calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "op"},
		),
	}
}

// Observe records one finished call.
func (r *Recorder) Observe(providerName, op, outcome string, d time.Duration) {
	r.requests.WithLabelValues(providerName, op, outcome).Inc()
	r.latency.WithLabelValues(providerName, op).Observe(d.Seconds())
}

// Outcome labels a call result: ok, absent, or the failure class name.
func Outcome(absent bool, err error) string {
	switch {
	case err != nil:
		return provider.ClassName(err)
	case absent:
		return OutcomeAbsent
	default:
		return OutcomeOK
	}
}

// Provider reports every call of P to R.
type Provider struct {
	P provider.Provider
	R *Recorder
}

func (m *Provider) Name() string { return m.P.Name() }

func (m *Provider) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	start := time.Now()
	v, err := m.P.Peers(ctx, symbol)
	m.R.Observe(m.P.Name(), provider.OpPeers, Outcome(v == nil, err), time.Since(start))
	return v, err
}

func (m *Provider) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	start := time.Now()
	v, err := m.P.TargetPrice(ctx, symbol)
	m.R.Observe(m.P.Name(), provider.OpTargetPrice, Outcome(v == nil, err), time.Since(start))
	return v, err
}

func (m *Provider) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	start := time.Now()
	v, err := m.P.ConsensusRating(ctx, symbol)
	m.R.Observe(m.P.Name(), provider.OpConsensusRating, Outcome(v == nil, err), time.Since(start))
	return v, err
}

func (m *Provider) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	start := time.Now()
	v, err := m.P.ConsensusEPS(ctx, symbol)
	m.R.Observe(m.P.Name(), provider.OpConsensusEPS, Outcome(v == nil, err), time.Since(start))
	return v, err
}
