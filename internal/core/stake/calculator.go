// Package stake sizes a recommended bet: flat, or fractional Kelly scaled by
// confidence and value weights.
package stake

import (
	"math"

	"github.com/tobikemp/fhscan/internal/config"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

// Mode names match the config's stake mode values.
const (
	ModeDynamic = "dynamic"
	ModeFlat    = "flat"
)

// minStakeWarn is the advisory floor below which a recommendation is flagged
// as too small to place at most books.
const minStakeWarn = 0.50

// Recommendation is the sizing output. Fraction always honors the cap and
// Amount never exceeds bankroll. For dynamic mode the three intermediate
// weights are retained so a recommendation can be audited after the fact.
type Recommendation struct {
	Mode       string   `json:"mode"`
	Fraction   float64  `json:"fraction"`
	Amount     float64  `json:"amount"`
	Kelly      float64  `json:"kelly"`
	ConfWeight float64  `json:"conf_weight"`
	ValWeight  float64  `json:"val_weight"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Zero returns an empty recommendation in the configured mode.
func Zero(p config.StakeParams) Recommendation {
	return Recommendation{Mode: p.Mode}
}

// Calculate sizes a stake for quoted odds and model probability.
//
// Dynamic mode: kelly × conf_weight × value_weight, capped at stake_cap.
//   - kelly = kelly_fraction × max(0, (b·p − q)/b), b = odds−1, q = 1−p
//   - conf_weight = max(0, 1 − ci_width/tau_conf); a non-positive width
//     counts as full confidence
//   - value_weight = min(1, edge_pct/target_edge_pct) for positive edge,
//     else 0 — both terms are percents, so the ratio is dimensionless
//
// Flat mode ignores the model entirely: min(flat_size, bankroll).
// Validation is advisory: warnings are recorded, never errors.
func Calculate(odds, p, edgePct, ciWidth float64, cfg config.StakeParams) Recommendation {
	if cfg.Mode == ModeFlat {
		return flat(cfg)
	}
	return dynamic(odds, p, edgePct, ciWidth, cfg)
}

func flat(cfg config.StakeParams) Recommendation {
	amount := math.Min(cfg.FlatSize, cfg.Bankroll)
	rec := Recommendation{
		Mode:     ModeFlat,
		Fraction: amount / cfg.Bankroll,
		Amount:   amount,
	}
	return validate(rec, cfg)
}

func dynamic(odds, p, edgePct, ciWidth float64, cfg config.StakeParams) Recommendation {
	rec := Recommendation{Mode: ModeDynamic}

	rec.Kelly = kelly(odds, p, cfg.KellyFraction)

	rec.ConfWeight = 1.0
	if ciWidth > 0 {
		rec.ConfWeight = math.Max(0, 1-ciWidth/cfg.TauConf)
	}

	if edgePct > 0 {
		rec.ValWeight = math.Min(1, edgePct/cfg.TargetEdgePct)
	}

	raw := rec.Kelly * rec.ConfWeight * rec.ValWeight
	rec.Fraction = math.Min(raw, cfg.StakeCap)
	rec.Amount = cfg.Bankroll * rec.Fraction

	return validate(rec, cfg)
}

// kelly returns the fractional Kelly fraction for decimal odds and win
// probability p. Degenerate inputs (odds <= 1, p outside (0,1)) size to zero
// rather than erroring: the gates, not the sizer, decide whether to bet.
func kelly(odds, p, fraction float64) float64 {
	if odds <= 1 || p <= 0 || p >= 1 {
		return 0
	}
	b := odds - 1
	q := 1 - p
	return fraction * math.Max(0, (b*p-q)/b)
}

func validate(rec Recommendation, cfg config.StakeParams) Recommendation {
	if rec.Amount > 0 && rec.Amount < minStakeWarn {
		rec.Warnings = append(rec.Warnings, "stake below practical minimum")
	}
	if rec.Fraction > cfg.StakeCap {
		rec.Warnings = append(rec.Warnings, "fraction exceeds stake cap")
	}
	if rec.Amount > cfg.Bankroll {
		rec.Warnings = append(rec.Warnings, "stake exceeds bankroll")
	}
	for _, w := range rec.Warnings {
		telemetry.Debugf("stake: %s (fraction=%.4f amount=%.2f)", w, rec.Fraction, rec.Amount)
	}
	return rec
}
