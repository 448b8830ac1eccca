// Package ratelimit gates every call of a provider.Provider so the upstream
// source is never asked faster than its quota allows.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

// waiter blocks until the next call may proceed.
type waiter interface {
	wait(ctx context.Context) error
}

// gated forwards the four provider calls through a waiter.
type gated struct {
	p provider.Provider
	w waiter
}

func (g gated) Name() string { return g.p.Name() }

func (g gated) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	return call(ctx, g, provider.OpPeers, symbol, g.p.Peers)
}

func (g gated) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	return call(ctx, g, provider.OpTargetPrice, symbol, g.p.TargetPrice)
}

func (g gated) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	return call(ctx, g, provider.OpConsensusRating, symbol, g.p.ConsensusRating)
}

func (g gated) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	return call(ctx, g, provider.OpConsensusEPS, symbol, g.p.ConsensusEPS)
}

func call[T any](ctx context.Context, g gated, op string, symbol analysis.Symbol, f func(context.Context, analysis.Symbol) (T, error)) (T, error) {
	var zero T
	if err := g.w.wait(ctx); err != nil {
		return zero, provider.NewRequestError(g.p.Name(), op, symbol, err)
	}
	return f(ctx, symbol)
}

// MinInterval wraps a provider and enforces a minimum time between calls.
// Each call reserves the next free slot, so concurrent callers are spaced out
// one Interval apart. A caller whose context ends while waiting returns early.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	return gated{p: m.P, w: m}.Peers(ctx, symbol)
}

func (m *MinInterval) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	return gated{p: m.P, w: m}.TargetPrice(ctx, symbol)
}

func (m *MinInterval) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	return gated{p: m.P, w: m}.ConsensusRating(ctx, symbol)
}

func (m *MinInterval) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	return gated{p: m.P, w: m}.ConsensusEPS(ctx, symbol)
}

func (m *MinInterval) wait(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	m.mu.Lock()
	now := time.Now()
	slot := m.next
	if slot.Before(now) {
		slot = now
	}
	m.next = slot.Add(m.Interval)
	m.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
