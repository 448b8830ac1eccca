// Package logged writes one structured log line per provider call.
package logged

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

// Provider logs every call of P. Successful calls are logged at debug,
// cancellations at info and failures at warn.
type Provider struct {
	P   provider.Provider
	Log zerolog.Logger
}

func (l *Provider) Name() string { return l.P.Name() }

func (l *Provider) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	start := time.Now()
	v, err := l.P.Peers(ctx, symbol)
	l.log(provider.OpPeers, symbol, start, v.Len(), err)
	return v, err
}

func (l *Provider) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	start := time.Now()
	v, err := l.P.TargetPrice(ctx, symbol)
	n := 0
	if v != nil {
		n = 1
	}
	l.log(provider.OpTargetPrice, symbol, start, n, err)
	return v, err
}

func (l *Provider) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	start := time.Now()
	v, err := l.P.ConsensusRating(ctx, symbol)
	l.log(provider.OpConsensusRating, symbol, start, len(v), err)
	return v, err
}

func (l *Provider) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	start := time.Now()
	v, err := l.P.ConsensusEPS(ctx, symbol)
	l.log(provider.OpConsensusEPS, symbol, start, len(v), err)
	return v, err
}

func (l *Provider) log(op string, symbol analysis.Symbol, start time.Time, items int, err error) {
	var ev *zerolog.Event
	switch {
	case err == nil:
		ev = l.Log.Debug().Int("items", items)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ev = l.Log.Info().Err(err)
	default:
		ev = l.Log.Warn().Err(err)
	}
	ev.Str("provider", l.P.Name()).
		Str("op", op).
		Str("symbol", string(symbol)).
		Dur("took", time.Since(start)).
		Msg("provider call")
}
