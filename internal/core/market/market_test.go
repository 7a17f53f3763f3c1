package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobikemp/fhscan/internal/core/fixture"
)

type stubProvider struct {
	name  string
	quote *Quote
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) FHOver05(_ context.Context, _ *fixture.Fixture) (*Quote, error) {
	s.calls++
	return s.quote, s.err
}

func q(price float64) *Quote {
	return &Quote{Price: price, Provider: "stub", ObservedAt: time.Now()}
}

func TestFairOdds(t *testing.T) {
	assert.InDelta(t, 1.25, FairOdds(0.8), 1e-9)
	assert.Zero(t, FairOdds(0))
	assert.Zero(t, FairOdds(-0.1))
}

func TestImpliedProb(t *testing.T) {
	assert.InDelta(t, 0.8, ImpliedProb(1.25), 1e-9)
	assert.Zero(t, ImpliedProb(0))
}

func TestResolvePriorityOrder(t *testing.T) {
	first := &stubProvider{name: "a", quote: q(1.40)}
	second := &stubProvider{name: "b", quote: q(1.55)}
	r := NewResolver(first, second)

	got := r.Resolve(context.Background(), &fixture.Fixture{ID: 1})
	require.NotNil(t, got)
	assert.Equal(t, 1.40, got.Price, "first provider wins even at a worse price")
	assert.Zero(t, second.calls, "later providers not consulted once a quote lands")
}

func TestResolveFallsThroughErrors(t *testing.T) {
	dead := &stubProvider{name: "dead", err: errors.New("feed down")}
	alive := &stubProvider{name: "alive", quote: q(1.45)}
	r := NewResolver(dead, alive)

	got := r.Resolve(context.Background(), &fixture.Fixture{ID: 1})
	require.NotNil(t, got)
	assert.Equal(t, 1.45, got.Price)
}

func TestResolveSkipsAbsentAndUnusable(t *testing.T) {
	absent := &stubProvider{name: "absent"} // (nil, nil): market not offered
	junk := &stubProvider{name: "junk", quote: q(1.0)}
	good := &stubProvider{name: "good", quote: q(1.62)}
	r := NewResolver(absent, junk, good)

	got := r.Resolve(context.Background(), &fixture.Fixture{ID: 1})
	require.NotNil(t, got)
	assert.Equal(t, 1.62, got.Price)
}

func TestResolveNoMarketAnywhere(t *testing.T) {
	r := NewResolver(
		&stubProvider{name: "a"},
		&stubProvider{name: "b", err: errors.New("down")},
	)
	assert.Nil(t, r.Resolve(context.Background(), &fixture.Fixture{ID: 1}))
}

func TestResolveNoProviders(t *testing.T) {
	r := NewResolver()
	assert.Nil(t, r.Resolve(context.Background(), &fixture.Fixture{ID: 1}))
}
