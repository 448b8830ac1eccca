// Package report assembles everything a provider knows about one symbol into
// a single JSON document, running the four queries concurrently.
package report

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

// Section status values.
const (
	StatusOK     = "ok"
	StatusAbsent = "absent"
	StatusError  = "error"
)

// Section is one query's outcome. Data is set only when Status is ok.
type Section[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	// Class is the provider failure class, e.g. rate_limited.
	Class string `json:"class,omitempty"`
}

func section[T any](v T, absent bool, err error) Section[T] {
	switch {
	case err != nil:
		var zero T
		return Section[T]{Status: StatusError, Data: zero, Error: err.Error(), Class: provider.ClassName(err)}
	case absent:
		return Section[T]{Status: StatusAbsent}
	default:
		return Section[T]{Status: StatusOK, Data: v}
	}
}

// TargetPrice is a price target snapshot with its validation outcome.
type TargetPrice struct {
	analysis.Snapshot[analysis.PriceTarget]
	Valid     bool   `json:"valid"`
	Violation string `json:"violation,omitempty"`
}

// Ratings is one validity window of recommendation counts.
type Ratings struct {
	analysis.Bounded[analysis.Ratings]
	Total         uint64   `json:"total"`
	ScaledAverage *float64 `json:"scaled_average,omitempty"`
	// Current is set on the window containing the report time.
	Current bool `json:"current,omitempty"`
}

// EPS is one fiscal period's consensus with its validation outcome.
type EPS struct {
	analysis.EPSConsensus
	Period    string `json:"period"`
	Valid     bool   `json:"valid"`
	Violation string `json:"violation,omitempty"`
}

type Report struct {
	Symbol      analysis.Symbol            `json:"symbol"`
	Provider    string                     `json:"provider"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Peers       Section[[]analysis.Symbol] `json:"peers"`
	TargetPrice Section[*TargetPrice]      `json:"target_price"`
	Ratings     Section[[]Ratings]         `json:"ratings"`
	EPS         Section[[]EPS]             `json:"eps"`
}

// Failed reports whether every section failed.
func (r Report) Failed() bool {
	return r.Peers.Status == StatusError &&
		r.TargetPrice.Status == StatusError &&
		r.Ratings.Status == StatusError &&
		r.EPS.Status == StatusError
}

// Build queries p for symbol. A failing query only marks its own section;
// Build itself never fails.
func Build(ctx context.Context, p provider.Provider, symbol analysis.Symbol) Report {
	now := time.Now().UTC()
	r := Report{Symbol: symbol, Provider: p.Name(), GeneratedAt: now}

	// Each goroutine owns one section; none returns an error so a failure
	// does not cancel its siblings.
	var g errgroup.Group
	g.Go(func() error {
		v, err := p.Peers(ctx, symbol)
		r.Peers = section(v.Sorted(), v == nil, err)
		return nil
	})
	g.Go(func() error {
		v, err := p.TargetPrice(ctx, symbol)
		r.TargetPrice = section(targetPrice(v), v == nil, err)
		return nil
	})
	g.Go(func() error {
		v, err := p.ConsensusRating(ctx, symbol)
		r.Ratings = section(ratings(v, now), v == nil, err)
		return nil
	})
	g.Go(func() error {
		v, err := p.ConsensusEPS(ctx, symbol)
		r.EPS = section(eps(v), v == nil, err)
		return nil
	})
	_ = g.Wait()
	return r
}

// BuildMany builds one report per symbol, at most limit at a time. Reports
// come back in symbol order.
func BuildMany(ctx context.Context, p provider.Provider, symbols []analysis.Symbol, limit int) []Report {
	out := make([]Report, len(symbols))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range symbols {
		g.Go(func() error {
			out[i] = Build(ctx, p, s)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func targetPrice(s *analysis.Snapshot[analysis.PriceTarget]) *TargetPrice {
	if s == nil {
		return nil
	}
	tp := &TargetPrice{Snapshot: *s, Valid: true}
	if err := s.Value.Validate(); err != nil {
		tp.Valid = false
		tp.Violation = err.Error()
	}
	return tp
}

func ratings(in []analysis.Bounded[analysis.Ratings], now time.Time) []Ratings {
	if in == nil {
		return nil
	}
	out := make([]Ratings, 0, len(in))
	for _, b := range in {
		r := Ratings{Bounded: b, Total: b.Value.Total(), Current: b.Contains(now)}
		if avg, ok := b.Value.ScaledAverage(); ok {
			r.ScaledAverage = &avg
		}
		out = append(out, r)
	}
	return out
}

func eps(in []analysis.EPSConsensus) []EPS {
	if in == nil {
		return nil
	}
	out := make([]EPS, 0, len(in))
	for _, c := range in {
		e := EPS{EPSConsensus: c, Period: c.FiscalPeriod.String(), Valid: true}
		if err := c.Validate(); err != nil {
			e.Valid = false
			e.Violation = err.Error()
		}
		out = append(out, e)
	}
	return out
}
