package ratelimit

import (
	"context"
	"sync"
	"time"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

// TokenBucket is a token bucket limiter.
//   - rate: tokens per second
//   - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewTokenBucket returns a full bucket, so the first burst calls pass at once.
func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 0.0000001
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// PerMinute builds a bucket from a requests-per-minute quota.
func PerMinute(n, burst int) *TokenBucket {
	return NewTokenBucket(float64(n)/60.0, burst)
}

// wait blocks until one token is available or ctx is done.
func (tb *TokenBucket) wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
			tb.tokens += elapsed * tb.rate
			if tb.tokens > tb.capacity {
				tb.tokens = tb.capacity
			}
			tb.last = now
		}
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		deficit := 1 - tb.tokens
		tb.mu.Unlock()

		d := time.Duration(deficit / tb.rate * float64(time.Second))
		if d <= 0 {
			d = time.Millisecond
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TokenBucketProvider wraps a Provider and gates calls using a token bucket.
// A nil TB disables the gate.
type TokenBucketProvider struct {
	P  provider.Provider
	TB *TokenBucket
}

func (t *TokenBucketProvider) Name() string { return t.P.Name() }

func (t *TokenBucketProvider) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	if t.TB == nil {
		return t.P.Peers(ctx, symbol)
	}
	return gated{p: t.P, w: t.TB}.Peers(ctx, symbol)
}

func (t *TokenBucketProvider) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	if t.TB == nil {
		return t.P.TargetPrice(ctx, symbol)
	}
	return gated{p: t.P, w: t.TB}.TargetPrice(ctx, symbol)
}

func (t *TokenBucketProvider) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	if t.TB == nil {
		return t.P.ConsensusRating(ctx, symbol)
	}
	return gated{p: t.P, w: t.TB}.ConsensusRating(ctx, symbol)
}

func (t *TokenBucketProvider) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	if t.TB == nil {
		return t.P.ConsensusEPS(ctx, symbol)
	}
	return gated{p: t.P, w: t.TB}.ConsensusEPS(ctx, symbol)
}
