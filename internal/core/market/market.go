// Package market locates the reference FH Over 0.5 price for a fixture.
package market

import (
	"context"
	"time"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

// Quote is one provider's decimal back price for FH Over 0.5.
type Quote struct {
	Price      float64   `json:"price"` // decimal odds, > 1.0
	Provider   string    `json:"provider"`
	ObservedAt time.Time `json:"observed_at"`
}

// FairOdds converts a probability to the break-even decimal price.
func FairOdds(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return 1 / p
}

// ImpliedProb converts a decimal price to its implied probability.
func ImpliedProb(odds float64) float64 {
	if odds <= 0 {
		return 0
	}
	return 1 / odds
}

// Provider serves FH Over 0.5 quotes for fixtures.
type Provider interface {
	// Name identifies the provider in quotes and logs.
	Name() string
	// FHOver05 returns the price, or (nil, nil) when the market is absent.
	FHOver05(ctx context.Context, f *fixture.Fixture) (*Quote, error)
}

// Resolver queries providers in priority order and returns the first usable
// quote. Ties go to provider priority rather than best price: the scanner
// wants a repeatable reference price, not arbitrage.
type Resolver struct {
	providers []Provider
}

// NewResolver takes providers already sorted by priority.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the first usable quote, or nil when no provider has the
// market. Provider failures are logged and skipped — a dead odds feed must
// not fail the fixture, it just means NO_MARKET from that source.
func (r *Resolver) Resolve(ctx context.Context, f *fixture.Fixture) *Quote {
	for _, p := range r.providers {
		q, err := p.FHOver05(ctx, f)
		if err != nil {
			telemetry.Warnf("market: %s fixture %d: %v", p.Name(), f.ID, err)
			continue
		}
		if q == nil || q.Price <= 1.0 {
			continue
		}
		return q
	}
	return nil
}
