// Package cache memoizes provider answers per operation and symbol.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

// entry stores one cached answer with expiry. Absence is cached like any
// other answer.
type entry struct {
	expiresAt time.Time
	value     any
}

// Provider caches results per (operation, symbol) for a TTL. Errors are
// never cached. Concurrent misses for the same key share one upstream call.
// Symbols are trimmed and upper-cased before they reach P.
type Provider struct {
	P        provider.Provider
	TTL      time.Duration
	MaxItems int

	// now is replaced in tests.
	now func() time.Time

	mu    sync.RWMutex
	items map[string]entry
	group singleflight.Group
}

func (c *Provider) Name() string { return c.P.Name() }

// Len returns the number of stored entries, expired ones included.
func (c *Provider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Provider) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	return cached(ctx, c, provider.OpPeers, symbol, c.P.Peers, analysis.Symbols.Clone)
}

func (c *Provider) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	return cached(ctx, c, provider.OpTargetPrice, symbol, c.P.TargetPrice, analysis.ClonePriceTarget)
}

func (c *Provider) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	return cached(ctx, c, provider.OpConsensusRating, symbol, c.P.ConsensusRating, analysis.CloneRatingsHistory)
}

func (c *Provider) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	return cached(ctx, c, provider.OpConsensusEPS, symbol, c.P.ConsensusEPS, analysis.CloneEPS)
}

// cached serves op for symbol from the cache or a shared upstream flight.
// The flight runs detached from any single caller's cancellation; each caller
// stops waiting when its own ctx ends. Every caller gets its own copy.
func cached[T any](ctx context.Context, c *Provider, op string, symbol analysis.Symbol, fetch func(context.Context, analysis.Symbol) (T, error), clone func(T) T) (T, error) {
	var zero T
	symbol = normalize(symbol)
	if c.TTL <= 0 {
		return fetch(ctx, symbol)
	}

	key := op + "|" + string(symbol)
	if v, ok := c.get(key); ok {
		return clone(v.(T)), nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// Another flight may have filled the key while this one queued.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := fetch(flightCtx, symbol)
		if err != nil {
			return nil, err
		}
		c.put(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, provider.NewRequestError(c.P.Name(), op, symbol, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return clone(res.Val.(T)), nil
	}
}

// normalize makes the cache key and the upstream query agree on one spelling.
func normalize(s analysis.Symbol) analysis.Symbol {
	return analysis.Symbol(strings.ToUpper(strings.TrimSpace(string(s))))
}

func (c *Provider) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Provider) get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || !c.clock().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Provider) put(key string, v any) {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[key] = entry{expiresAt: now.Add(c.TTL), value: v}

	if c.MaxItems <= 0 || len(c.items) <= c.MaxItems {
		return
	}
	// Expired entries go first, then arbitrary ones.
	for k, e := range c.items {
		if len(c.items) <= c.MaxItems {
			return
		}
		if k != key && !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
	for k := range c.items {
		if len(c.items) <= c.MaxItems {
			return
		}
		if k != key {
			delete(c.items, k)
		}
	}
}
