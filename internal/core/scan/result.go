package scan

import (
	"time"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/core/project"
	"github.com/tobikemp/fhscan/internal/core/stake"
	"github.com/tobikemp/fhscan/internal/core/value"
)

// Skip reasons, one per failure kind in the error taxonomy. A skipped fixture
// never aborts the scan.
const (
	SkipInsufficientData    = "INSUFFICIENT_DATA"
	SkipProviderTimeout     = "PROVIDER_TIMEOUT"
	SkipProviderUnavailable = "PROVIDER_UNAVAILABLE"
	SkipInvalidProjection   = "INVALID_PROJECTION"
)

// Result is one evaluated fixture. Quote and EdgePct are nil for NO_MARKET
// fixtures — those still carry a projection and a (necessarily false) signal.
// Nothing in a Result mutates after emission.
type Result struct {
	Fixture    fixture.Fixture      `json:"fixture"`
	Projection project.Projection   `json:"projection"`
	Quote      *market.Quote        `json:"quote,omitempty"`
	FairOdds   float64              `json:"fair_odds"`
	EdgePct    *float64             `json:"edge_pct,omitempty"`
	Signal     value.Signal         `json:"signal"`
	Stake      stake.Recommendation `json:"stake"`
}

// Skip records why a fixture produced no result.
type Skip struct {
	FixtureID int       `json:"fixture_id"`
	League    string    `json:"league"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Kickoff   time.Time `json:"kickoff"`
	Stage     string    `json:"stage"` // estimate_home, estimate_away, project
	Reason    string    `json:"reason"`
}

// Report is the aggregate outcome of one scan. Every submitted fixture is
// accounted for in either Results or Skips (cancelled fixtures excepted).
// Results are sorted by (kickoff asc, fixture id asc).
type Report struct {
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Results     []Result      `json:"results"`
	Skips       []Skip        `json:"skips"`
}
