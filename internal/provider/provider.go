// Package provider defines the capabilities a data source implements to
// supply peer sets and analyst aggregates for a symbol.
//
// A nil result with a nil error means the source has no data for the symbol.
// A non-nil error means the request itself failed and is always a
// *RequestError.
package provider

import (
	"context"
	"errors"
	"fmt"

	"analystprovider/internal/analysis"
)

// Peers returns symbols expected to represent peer companies of a symbol.
// The set may come from the market or from the source itself.
type Peers interface {
	Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error)
}

// AnalystRecommendations returns analyst aggregates for a symbol. Slices are
// returned in the source's order; callers must not assume any sorting.
type AnalystRecommendations interface {
	TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error)
	ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error)
	ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error)
}

// Provider is a named source implementing both capabilities.
type Provider interface {
	Name() string
	Peers
	AnalystRecommendations
}

// Operation names, used for errors, cache keys, logs and metrics.
const (
	OpPeers           = "peers"
	OpTargetPrice     = "target_price"
	OpConsensusRating = "consensus_rating"
	OpConsensusEPS    = "consensus_eps"
)

// Request failure classes. A RequestError wraps at most one of these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("source unavailable")
	ErrMalformed    = errors.New("malformed response")
)

// RequestError reports a failed provider call.
type RequestError struct {
	Provider string
	Op       string
	Symbol   analysis.Symbol
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s(%s): %v", e.Provider, e.Op, e.Symbol, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NewRequestError wraps err unless it already is a *RequestError.
func NewRequestError(providerName, op string, symbol analysis.Symbol, err error) error {
	var re *RequestError
	if errors.As(err, &re) {
		return err
	}
	return &RequestError{Provider: providerName, Op: op, Symbol: symbol, Err: err}
}

// Class returns the failure class of err, or nil if it has none.
func Class(err error) error {
	for _, c := range []error{ErrUnauthorized, ErrRateLimited, ErrNotFound, ErrUnavailable, ErrMalformed} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

// ClassName is the snake_case label of err's failure class: canceled for
// context errors, unavailable when err carries no class.
func ClassName(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	switch Class(err) {
	case ErrUnauthorized:
		return "unauthorized"
	case ErrRateLimited:
		return "rate_limited"
	case ErrNotFound:
		return "not_found"
	case ErrMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}
