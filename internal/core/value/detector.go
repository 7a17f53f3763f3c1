// Package value applies the four stage gates that decide whether a projected
// fixture is a bet signal at the quoted price.
package value

import (
	"github.com/tobikemp/fhscan/internal/config"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/core/project"
)

// Gate reason codes, emitted in fixed gate order.
const (
	ReasonLambda  = "lambda"
	ReasonSamples = "samples"
	ReasonEdge    = "edge"
	ReasonCIWidth = "ci_width"
)

// Signal is the gate verdict. All four gates are always populated, even when
// Overall is already false; Reasons names the failing gates in gate order.
type Signal struct {
	LambdaOK  bool     `json:"lambda_ok"`
	SamplesOK bool     `json:"samples_ok"`
	EdgeOK    bool     `json:"edge_ok"`
	CIOK      bool     `json:"ci_ok"`
	Overall   bool     `json:"overall"`
	Reasons   []string `json:"reasons,omitempty"`
}

// Detection is the full value assessment for one fixture.
//
// EdgePct is nil when there is no quote: without a price there is no edge to
// state, and the edge gate is forced false.
type Detection struct {
	FairOdds float64
	EdgePct  *float64
	Signal   Signal
}

// Detect computes fair odds and edge and runs the gates.
//
// Gate order is fixed: lambda, samples, edge, ci_width. The samples gate is
// the projection-level one (min_samples_home/away, default 8) and is stricter
// than the estimator's own minimum-match gate; both hold independently.
func Detect(proj project.Projection, quote *market.Quote, m config.ModelParams) Detection {
	d := Detection{FairOdds: market.FairOdds(proj.P)}

	if quote != nil {
		edge := 100 * (quote.Price*proj.P - 1)
		d.EdgePct = &edge
	}

	s := Signal{
		LambdaOK:  proj.Lambda >= m.LambdaThreshold,
		SamplesOK: proj.NHome >= m.MinSamplesHome && proj.NAway >= m.MinSamplesAway,
		EdgeOK:    d.EdgePct != nil && *d.EdgePct >= m.MinEdgePct,
		CIOK:      proj.CIWidth <= m.MaxProbCIWidth,
	}
	s.Overall = s.LambdaOK && s.SamplesOK && s.EdgeOK && s.CIOK

	if !s.LambdaOK {
		s.Reasons = append(s.Reasons, ReasonLambda)
	}
	if !s.SamplesOK {
		s.Reasons = append(s.Reasons, ReasonSamples)
	}
	if !s.EdgeOK {
		s.Reasons = append(s.Reasons, ReasonEdge)
	}
	if !s.CIOK {
		s.Reasons = append(s.Reasons, ReasonCIWidth)
	}

	d.Signal = s
	return d
}
