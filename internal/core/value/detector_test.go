package value

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobikemp/fhscan/internal/config"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/core/project"
)

func modelDefaults() config.ModelParams {
	return config.DefaultParams().Model
}

func projection(lambda, ciWidth float64, nHome, nAway int) project.Projection {
	p := 1 - math.Exp(-lambda)
	return project.Projection{
		Lambda: lambda, P: p,
		PLo: p - ciWidth/2, PHi: p + ciWidth/2, CIWidth: ciWidth,
		NHome: nHome, NAway: nAway,
	}
}

func quote(price float64) *market.Quote {
	return &market.Quote{Price: price, Provider: "test", ObservedAt: time.Now()}
}

func TestDetectSignalFires(t *testing.T) {
	proj := projection(1.70, 0.11, 12, 10)
	d := Detect(proj, quote(1.40), modelDefaults())

	require.NotNil(t, d.EdgePct)
	assert.InDelta(t, 14.42, *d.EdgePct, 0.01)
	assert.InDelta(t, 1.2235, d.FairOdds, 0.001)

	assert.True(t, d.Signal.LambdaOK)
	assert.True(t, d.Signal.SamplesOK)
	assert.True(t, d.Signal.EdgeOK)
	assert.True(t, d.Signal.CIOK)
	assert.True(t, d.Signal.Overall)
	assert.Empty(t, d.Signal.Reasons)
}

func TestDetectLambdaBelowThreshold(t *testing.T) {
	// Rates 1.1 and 1.0 average to 1.05, under the 1.5 threshold.
	proj := projection(1.05, 0.10, 10, 12)
	d := Detect(proj, quote(1.50), modelDefaults())

	assert.False(t, d.Signal.LambdaOK)
	assert.False(t, d.Signal.Overall)
	assert.Equal(t, []string{ReasonLambda}, d.Signal.Reasons)
}

func TestDetectLowSamples(t *testing.T) {
	proj := projection(1.95, 0.10, 5, 20)
	d := Detect(proj, quote(1.40), modelDefaults())

	assert.False(t, d.Signal.SamplesOK)
	assert.False(t, d.Signal.Overall)
	assert.Contains(t, d.Signal.Reasons, ReasonSamples)
}

func TestDetectNoQuote(t *testing.T) {
	proj := projection(1.70, 0.11, 12, 10)
	d := Detect(proj, nil, modelDefaults())

	assert.Nil(t, d.EdgePct, "no price means no edge to state")
	assert.False(t, d.Signal.EdgeOK)
	assert.False(t, d.Signal.Overall)
	assert.Equal(t, []string{ReasonEdge}, d.Signal.Reasons)
	assert.Greater(t, d.FairOdds, 1.0, "fair odds still reported without a market")
}

func TestDetectGateBoundaries(t *testing.T) {
	m := modelDefaults()

	t.Run("lambda at threshold passes", func(t *testing.T) {
		d := Detect(projection(m.LambdaThreshold, 0.10, 12, 10), quote(1.80), m)
		assert.True(t, d.Signal.LambdaOK)
	})
	t.Run("edge at threshold passes", func(t *testing.T) {
		// price chosen so edge lands a hair over min_edge; the gate is >=.
		proj := projection(1.70, 0.10, 12, 10)
		price := (1 + m.MinEdgePct/100) / proj.P * (1 + 1e-12)
		d := Detect(proj, quote(price), m)
		require.NotNil(t, d.EdgePct)
		assert.InDelta(t, m.MinEdgePct, *d.EdgePct, 1e-6)
		assert.True(t, d.Signal.EdgeOK)
	})
	t.Run("ci width at threshold passes", func(t *testing.T) {
		d := Detect(projection(1.70, m.MaxProbCIWidth, 12, 10), quote(1.40), m)
		assert.True(t, d.Signal.CIOK)
	})
	t.Run("ci width just over fails", func(t *testing.T) {
		d := Detect(projection(1.70, m.MaxProbCIWidth+1e-9, 12, 10), quote(1.40), m)
		assert.False(t, d.Signal.CIOK)
		assert.Contains(t, d.Signal.Reasons, ReasonCIWidth)
	})
}

func TestDetectReasonsInGateOrder(t *testing.T) {
	// Everything fails: low lambda, low samples, no quote, wide interval.
	proj := projection(0.9, 0.5, 2, 3)
	d := Detect(proj, nil, modelDefaults())

	assert.False(t, d.Signal.Overall)
	assert.Equal(t, []string{ReasonLambda, ReasonSamples, ReasonEdge, ReasonCIWidth}, d.Signal.Reasons)
}

func TestDetectNegativeEdge(t *testing.T) {
	proj := projection(1.70, 0.10, 12, 10)
	d := Detect(proj, quote(1.10), modelDefaults())

	require.NotNil(t, d.EdgePct)
	assert.Less(t, *d.EdgePct, 0.0)
	assert.False(t, d.Signal.EdgeOK)
	assert.Equal(t, []string{ReasonEdge}, d.Signal.Reasons)
}
