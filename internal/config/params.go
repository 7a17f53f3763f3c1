package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelParams are the projection and signal-gate thresholds.
//
// MinMatchesRequired gates the estimator on a team's TOTAL finished-match
// count; MinSamplesHome/Away gate the projection on the venue-filtered counts.
// The two thresholds are intentionally distinct — do not collapse them.
type ModelParams struct {
	LambdaThreshold    float64 `yaml:"lambda_threshold"`
	MinSamplesHome     int     `yaml:"min_samples_home"`
	MinSamplesAway     int     `yaml:"min_samples_away"`
	MinEdgePct         float64 `yaml:"min_edge_pct"`
	MaxProbCIWidth     float64 `yaml:"max_prob_ci_width"`
	MinMatchesRequired int     `yaml:"min_matches_required"`
}

// StakeParams configure the staking calculator.
type StakeParams struct {
	Mode          string  `yaml:"mode"` // "dynamic" or "flat"
	Bankroll      float64 `yaml:"bankroll"`
	KellyFraction float64 `yaml:"kelly_fraction"`
	TauConf       float64 `yaml:"tau_conf"`
	TargetEdgePct float64 `yaml:"target_edge_pct"`
	StakeCap      float64 `yaml:"stake_cap"`
	FlatSize      float64 `yaml:"flat_size"`
}

type Params struct {
	Model ModelParams `yaml:"model"`
	Stake StakeParams `yaml:"stake"`
}

// DefaultParams returns the documented defaults, used when no params file exists.
func DefaultParams() Params {
	return Params{
		Model: ModelParams{
			LambdaThreshold:    1.5,
			MinSamplesHome:     8,
			MinSamplesAway:     8,
			MinEdgePct:         3.0,
			MaxProbCIWidth:     0.20,
			MinMatchesRequired: 4,
		},
		Stake: StakeParams{
			Mode:          "dynamic",
			Bankroll:      1000,
			KellyFraction: 0.5,
			TauConf:       0.20,
			TargetEdgePct: 5.0,
			StakeCap:      0.03,
			FlatSize:      10,
		},
	}
}

// LoadParams reads the yaml params file. A missing file falls back to
// defaults; a malformed or invalid file is an error (fatal at scan start).
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultParams(), nil
		}
		return Params{}, fmt.Errorf("read params: %w", err)
	}

	p := DefaultParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate rejects configurations that would make a scan meaningless.
// Any error here aborts before fan-out.
func (p Params) Validate() error {
	m, s := p.Model, p.Stake
	switch {
	case m.LambdaThreshold <= 0:
		return fmt.Errorf("config: lambda_threshold must be > 0, got %v", m.LambdaThreshold)
	case m.MinSamplesHome < 1 || m.MinSamplesAway < 1:
		return fmt.Errorf("config: min_samples_home/away must be >= 1")
	case m.MaxProbCIWidth <= 0 || m.MaxProbCIWidth > 1:
		return fmt.Errorf("config: max_prob_ci_width must be in (0,1], got %v", m.MaxProbCIWidth)
	case m.MinMatchesRequired < 1:
		return fmt.Errorf("config: min_matches_required must be >= 1, got %d", m.MinMatchesRequired)
	}

	switch {
	case s.Mode != "dynamic" && s.Mode != "flat":
		return fmt.Errorf("config: stake mode must be dynamic or flat, got %q", s.Mode)
	case s.Bankroll <= 0:
		return fmt.Errorf("config: bankroll must be > 0, got %v", s.Bankroll)
	case s.StakeCap <= 0 || s.StakeCap > 1:
		return fmt.Errorf("config: stake_cap must be in (0,1], got %v", s.StakeCap)
	case s.KellyFraction <= 0 || s.KellyFraction > 1:
		return fmt.Errorf("config: kelly_fraction must be in (0,1], got %v", s.KellyFraction)
	case s.TauConf <= 0:
		return fmt.Errorf("config: tau_conf must be > 0, got %v", s.TauConf)
	case s.TargetEdgePct <= 0:
		return fmt.Errorf("config: target_edge_pct must be > 0, got %v", s.TargetEdgePct)
	case s.Mode == "flat" && s.FlatSize <= 0:
		return fmt.Errorf("config: flat_size must be > 0 in flat mode, got %v", s.FlatSize)
	}

	return nil
}
