// Package project turns a home and an away team rate into a first-half
// Over 0.5 probability with a 95% confidence interval.
package project

import (
	"errors"
	"math"

	"github.com/tobikemp/fhscan/internal/core/estimate"
)

// z95 is the two-sided 95% normal quantile used for the Wald interval.
const z95 = 1.96

// ErrUnprojectable is returned when either input rate carries no usable mean.
var ErrUnprojectable = errors.New("unprojectable")

// ErrInvalidProjection marks an invariant violation: a non-positive match
// rate or a probability outside (0,1) from positive inputs. Treated as a bug,
// not a data condition.
var ErrInvalidProjection = errors.New("invalid projection")

// Projection is the match-level first-half goal model output.
//
// Lambda is the expected total first-half goals; P is Pr(>=1 goal) under a
// Poisson model. PLo/PHi bound P at 95% and always satisfy
// 0 <= PLo <= P <= PHi <= 1.
type Projection struct {
	Lambda  float64 `json:"lambda"`
	P       float64 `json:"p"`
	PLo     float64 `json:"p_lo"`
	PHi     float64 `json:"p_hi"`
	CIWidth float64 `json:"ci_width"`
	NHome   int     `json:"n_home"`
	NAway   int     `json:"n_away"`
}

// Project combines the home team's home rate with the away team's away rate.
//
// lambda = (mu_home + mu_away) / 2, p = 1 − e^(−lambda). The interval is a
// Wald interval on lambda using the pooled two-sample variance
// ((n_h−1)s_h² + (n_a−1)s_a²) / (n_h+n_a−2) with n = n_h + n_a, propagated
// to p through the monotone map p = 1 − e^(−λ) and clipped to [0,1].
func Project(home, away estimate.TeamRate) (Projection, error) {
	if home.N == 0 || away.N == 0 {
		return Projection{}, ErrUnprojectable
	}

	lambda := (home.Mean + away.Mean) / 2
	if lambda <= 0 {
		return Projection{}, ErrInvalidProjection
	}

	p := 1 - math.Exp(-lambda)
	if p <= 0 || p >= 1 {
		return Projection{}, ErrInvalidProjection
	}

	n := home.N + away.N
	se := math.Sqrt(pooledVar(home, away) / float64(n))

	lamLo := math.Max(0, lambda-z95*se)
	lamHi := lambda + z95*se

	proj := Projection{
		Lambda: lambda,
		P:      p,
		PLo:    clamp01(1 - math.Exp(-lamLo)),
		PHi:    clamp01(1 - math.Exp(-lamHi)),
		NHome:  home.N,
		NAway:  away.N,
	}
	proj.CIWidth = proj.PHi - proj.PLo
	return proj, nil
}

// pooledVar is the classical two-sample pooled variance estimator over the
// per-match total-first-half-goal observations behind each mean. Degenerate
// samples (n_h + n_a <= 2) pool to 0, collapsing the interval onto p.
func pooledVar(home, away estimate.TeamRate) float64 {
	dof := home.N + away.N - 2
	if dof <= 0 {
		return 0
	}
	return (float64(home.N-1)*home.Var + float64(away.N-1)*away.Var) / float64(dof)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
