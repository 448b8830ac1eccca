// Package providertest provides a configurable provider.Provider for tests.
package providertest

import (
	"context"
	"sync"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

// Stub answers from its fields. A nil func returns absence. Calls are
// counted per operation.
type Stub struct {
	ProviderName string

	PeersFunc           func(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error)
	TargetPriceFunc     func(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error)
	ConsensusRatingFunc func(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error)
	ConsensusEPSFunc    func(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ provider.Provider = (*Stub)(nil)

func (s *Stub) Name() string {
	if s.ProviderName == "" {
		return "stub"
	}
	return s.ProviderName
}

// Calls returns how many times op was invoked.
func (s *Stub) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Stub) record(op string) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[op]++
	s.mu.Unlock()
}

func (s *Stub) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	s.record(provider.OpPeers)
	if s.PeersFunc == nil {
		return nil, nil
	}
	return s.PeersFunc(ctx, symbol)
}

func (s *Stub) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	s.record(provider.OpTargetPrice)
	if s.TargetPriceFunc == nil {
		return nil, nil
	}
	return s.TargetPriceFunc(ctx, symbol)
}

func (s *Stub) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	s.record(provider.OpConsensusRating)
	if s.ConsensusRatingFunc == nil {
		return nil, nil
	}
	return s.ConsensusRatingFunc(ctx, symbol)
}

func (s *Stub) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	s.record(provider.OpConsensusEPS)
	if s.ConsensusEPSFunc == nil {
		return nil, nil
	}
	return s.ConsensusEPSFunc(ctx, symbol)
}
