package stake

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobikemp/fhscan/internal/config"
)

func stakeDefaults() config.StakeParams {
	return config.DefaultParams().Stake
}

func TestDynamicCapped(t *testing.T) {
	// Strong signal: odds 1.40 against p = 1 - e^-1.7, edge 14.42%, tight
	// interval. Raw fraction exceeds the 3% cap so the stake pins at 30.00.
	p := 1 - math.Exp(-1.70)
	rec := Calculate(1.40, p, 14.42, 0.11, stakeDefaults())

	b, q := 0.40, 1-p
	wantKelly := 0.5 * (b*p - q) / b
	assert.InDelta(t, wantKelly, rec.Kelly, 1e-9)
	assert.InDelta(t, 0.45, rec.ConfWeight, 1e-9)
	assert.Equal(t, 1.0, rec.ValWeight)

	assert.Greater(t, rec.Kelly*rec.ConfWeight*rec.ValWeight, 0.03)
	assert.Equal(t, 0.03, rec.Fraction)
	assert.InDelta(t, 30.00, rec.Amount, 1e-9)
	assert.Empty(t, rec.Warnings)
}

func TestDynamicUncapped(t *testing.T) {
	// Thin edge and wide interval keep the raw fraction under the cap.
	cfg := stakeDefaults()
	rec := Calculate(1.30, 0.80, 4.0, 0.15, cfg)

	raw := rec.Kelly * rec.ConfWeight * rec.ValWeight
	assert.Less(t, raw, cfg.StakeCap)
	assert.InDelta(t, raw, rec.Fraction, 1e-12)
	assert.InDelta(t, cfg.Bankroll*raw, rec.Amount, 1e-9)
}

func TestDynamicZeroForNonPositiveEdge(t *testing.T) {
	rec := Calculate(1.10, 0.80, -12.0, 0.10, stakeDefaults())
	assert.Zero(t, rec.ValWeight)
	assert.Zero(t, rec.Fraction)
	assert.Zero(t, rec.Amount)

	rec = Calculate(1.25, 0.80, 0.0, 0.10, stakeDefaults())
	assert.Zero(t, rec.ValWeight)
	assert.Zero(t, rec.Amount)
}

func TestConfWeightEdges(t *testing.T) {
	cfg := stakeDefaults() // tau_conf = 0.20

	t.Run("zero width is full confidence", func(t *testing.T) {
		rec := Calculate(1.40, 0.80, 10.0, 0.0, cfg)
		assert.Equal(t, 1.0, rec.ConfWeight)
	})
	t.Run("width at tau zeroes the stake", func(t *testing.T) {
		rec := Calculate(1.40, 0.80, 10.0, 0.20, cfg)
		assert.Zero(t, rec.ConfWeight)
		assert.Zero(t, rec.Amount)
	})
	t.Run("width beyond tau clamps at zero", func(t *testing.T) {
		rec := Calculate(1.40, 0.80, 10.0, 0.35, cfg)
		assert.Zero(t, rec.ConfWeight)
	})
}

func TestValueWeightSaturates(t *testing.T) {
	cfg := stakeDefaults() // target_edge_pct = 5.0

	rec := Calculate(1.40, 0.80, 2.5, 0.05, cfg)
	assert.InDelta(t, 0.5, rec.ValWeight, 1e-9)

	rec = Calculate(1.40, 0.80, 25.0, 0.05, cfg)
	assert.Equal(t, 1.0, rec.ValWeight, "weight saturates at target edge")
}

func TestKellyDegenerateInputs(t *testing.T) {
	cfg := stakeDefaults()
	for _, tc := range []struct {
		name    string
		odds, p float64
	}{
		{"odds at 1", 1.0, 0.8},
		{"odds below 1", 0.9, 0.8},
		{"p zero", 1.5, 0},
		{"p one", 1.5, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := Calculate(tc.odds, tc.p, 10.0, 0.05, cfg)
			assert.Zero(t, rec.Kelly)
			assert.Zero(t, rec.Amount)
		})
	}
}

func TestKellyMonotonicInProbability(t *testing.T) {
	cfg := stakeDefaults()
	prev := -1.0
	for _, p := range []float64{0.60, 0.70, 0.80, 0.90} {
		rec := Calculate(1.60, p, 10.0, 0.05, cfg)
		assert.Greater(t, rec.Kelly, prev, "kelly grows with p at fixed odds")
		prev = rec.Kelly
	}
}

func TestFlatMode(t *testing.T) {
	cfg := stakeDefaults()
	cfg.Mode = ModeFlat
	cfg.FlatSize = 10

	rec := Calculate(1.40, 0.80, 14.0, 0.05, cfg)
	assert.Equal(t, ModeFlat, rec.Mode)
	assert.InDelta(t, 10.0, rec.Amount, 1e-9)
	assert.InDelta(t, 0.01, rec.Fraction, 1e-9)

	// Flat size never exceeds bankroll.
	cfg.Bankroll = 6
	rec = Calculate(1.40, 0.80, 14.0, 0.05, cfg)
	assert.InDelta(t, 6.0, rec.Amount, 1e-9)
}

func TestTinyStakeWarning(t *testing.T) {
	cfg := stakeDefaults()
	cfg.Bankroll = 10 // cap 3% of 10 = 0.30, under the practical minimum

	rec := Calculate(1.40, 1-math.Exp(-1.70), 14.42, 0.11, cfg)
	require.NotEmpty(t, rec.Warnings)
	assert.Contains(t, rec.Warnings[0], "practical minimum")
	assert.Greater(t, rec.Amount, 0.0, "warning is advisory, stake still emitted")
}

func TestZero(t *testing.T) {
	rec := Zero(stakeDefaults())
	assert.Equal(t, ModeDynamic, rec.Mode)
	assert.Zero(t, rec.Fraction)
	assert.Zero(t, rec.Amount)
}
