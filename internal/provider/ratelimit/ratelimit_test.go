package ratelimit_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
	"analystprovider/internal/provider/providertest"
	"analystprovider/internal/provider/ratelimit"
)

func TestMinInterval_SpacesCalls(t *testing.T) {
	t.Parallel()

	stub := &providertest.Stub{}
	p := &ratelimit.MinInterval{P: stub, Interval: 50 * time.Millisecond}

	start := time.Now()
	_, err := p.Peers(t.Context(), "AAPL")
	require.NoError(t, err)
	_, err = p.TargetPrice(t.Context(), "AAPL")
	require.NoError(t, err)
	_, err = p.ConsensusRating(t.Context(), "AAPL")
	require.NoError(t, err)

	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	require.Equal(t, 1, stub.Calls(provider.OpPeers))
	require.Equal(t, 1, stub.Calls(provider.OpTargetPrice))
	require.Equal(t, 1, stub.Calls(provider.OpConsensusRating))
	require.Equal(t, "stub", p.Name())
}

func TestMinInterval_SpacesConcurrentCalls(t *testing.T) {
	t.Parallel()

	const interval = 40 * time.Millisecond

	var mu sync.Mutex
	var stamps []time.Time
	stub := &providertest.Stub{
		PeersFunc: func(context.Context, analysis.Symbol) (analysis.Symbols, error) {
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
			return nil, nil
		},
	}
	p := &ratelimit.MinInterval{P: stub, Interval: interval}

	start := time.Now()
	_, err := p.Peers(t.Context(), "AAPL")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Peers(context.Background(), "AAPL")
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 5)
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	// The i-th call cannot start before its reserved slot.
	for i, ts := range stamps {
		require.GreaterOrEqual(t, ts.Sub(start), time.Duration(i)*interval, "call %d", i)
	}
}

func TestMinInterval_ContextCanceled(t *testing.T) {
	t.Parallel()

	stub := &providertest.Stub{}
	p := &ratelimit.MinInterval{P: stub, Interval: time.Hour}

	_, err := p.ConsensusEPS(t.Context(), "AAPL")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err = p.ConsensusEPS(ctx, "AAPL")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var re *provider.RequestError
	require.True(t, errors.As(err, &re))
	require.Equal(t, provider.OpConsensusEPS, re.Op)
	require.Equal(t, 1, stub.Calls(provider.OpConsensusEPS))
}

func TestTokenBucketProvider_Burst(t *testing.T) {
	t.Parallel()

	stub := &providertest.Stub{}
	p := &ratelimit.TokenBucketProvider{P: stub, TB: ratelimit.NewTokenBucket(0.001, 2)}

	_, err := p.Peers(t.Context(), "A")
	require.NoError(t, err)
	_, err = p.TargetPrice(t.Context(), "A")
	require.NoError(t, err)

	// Bucket is empty and refills far slower than the deadline.
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = p.ConsensusRating(ctx, "A")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, stub.Calls(provider.OpConsensusRating))
}

func TestTokenBucketProvider_Refills(t *testing.T) {
	t.Parallel()

	stub := &providertest.Stub{}
	p := &ratelimit.TokenBucketProvider{P: stub, TB: ratelimit.NewTokenBucket(50, 1)}

	start := time.Now()
	for range 3 {
		_, err := p.ConsensusEPS(t.Context(), "A")
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	require.Equal(t, 3, stub.Calls(provider.OpConsensusEPS))
}

func TestTokenBucketProvider_NilBucket(t *testing.T) {
	t.Parallel()

	stub := &providertest.Stub{ProviderName: "s"}
	p := &ratelimit.TokenBucketProvider{P: stub}

	for range 5 {
		_, err := p.Peers(t.Context(), "A")
		require.NoError(t, err)
	}
	require.Equal(t, 5, stub.Calls(provider.OpPeers))
	require.Equal(t, "s", p.Name())
}

func TestPerMinute(t *testing.T) {
	t.Parallel()

	stub := &providertest.Stub{}
	p := &ratelimit.TokenBucketProvider{P: stub, TB: ratelimit.PerMinute(60, 3)}
	for range 3 {
		_, err := p.TargetPrice(t.Context(), "A")
		require.NoError(t, err)
	}
	require.Equal(t, 3, stub.Calls(provider.OpTargetPrice))
}
