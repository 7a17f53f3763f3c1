// Package estimate computes per-team first-half goal rates from recent
// finished fixtures, with a scan-scoped single-flight memo so a team shared
// by several fixtures in one scan costs exactly one upstream call.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

// historyDepth is how many recent finished fixtures we request per team.
const historyDepth = 50

// ErrInsufficientData marks a team whose history cannot support an estimate:
// fewer than MinMatches finished matches in total, or an empty venue subset.
var ErrInsufficientData = errors.New("insufficient data")

// HistoryProvider is the slice of the fixture provider the estimator needs.
type HistoryProvider interface {
	// TeamHistory returns up to lastN finished fixtures for the team in the
	// season, most recent first, with halftime scores where the feed has them.
	TeamHistory(ctx context.Context, teamID, season, lastN int) ([]fixture.Fixture, error)
}

// TeamRate is one team's first-half scoring estimate at a venue.
//
// N counts the venue-filtered matches that produced Mean; TotalFinished
// counts all observable finished matches and is what the minimum-match gate
// applies to. Var is the sample variance of the per-match total-first-half-
// goal observations behind Mean (0 when N < 2).
type TeamRate struct {
	TeamID         int
	Season         int
	Venue          fixture.Venue
	N              int
	TotalFinished  int
	Mean           float64
	Var            float64
	SourceFixtures []int
}

// Estimator derives TeamRates from provider history.
type Estimator struct {
	provider   HistoryProvider
	minMatches int
}

func NewEstimator(provider HistoryProvider, minMatches int) *Estimator {
	return &Estimator{provider: provider, minMatches: minMatches}
}

// Estimate fetches the team's history and computes its rate at the venue.
//
// The minimum-match gate applies to the TOTAL observable finished count, not
// the venue subset: early-season teams with a lopsided home/away split stay
// analyzable. An empty venue subset after a passing gate still returns
// ErrInsufficientData (there is nothing to average).
func (e *Estimator) Estimate(ctx context.Context, teamID, season int, venue fixture.Venue) (TeamRate, error) {
	history, err := e.provider.TeamHistory(ctx, teamID, season, historyDepth)
	if err != nil {
		return TeamRate{}, fmt.Errorf("team %d history: %w", teamID, err)
	}

	rate := TeamRate{TeamID: teamID, Season: season, Venue: venue}

	var obs []float64
	for _, f := range history {
		// A finished match without a halftime score contributes no
		// observation and is not counted toward the gate either.
		if f.Status != fixture.StatusFinished || f.HalfTime == nil {
			continue
		}
		rate.TotalFinished++
		if f.Team(venue).ID != teamID {
			continue
		}
		obs = append(obs, float64(f.HalfTime.Total()))
		rate.SourceFixtures = append(rate.SourceFixtures, f.ID)
	}
	rate.N = len(obs)

	if rate.TotalFinished < e.minMatches || rate.N == 0 {
		telemetry.Debugf("estimate: team %d season %d %s: insufficient (total=%d venue=%d min=%d)",
			teamID, season, venue, rate.TotalFinished, rate.N, e.minMatches)
		return rate, ErrInsufficientData
	}

	rate.Mean, rate.Var = meanVar(obs)
	return rate, nil
}

// meanVar returns the sample mean and (n−1)-denominator sample variance.
func meanVar(obs []float64) (float64, float64) {
	var sum float64
	for _, x := range obs {
		sum += x
	}
	mean := sum / float64(len(obs))

	if len(obs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range obs {
		d := x - mean
		ss += d * d
	}
	return mean, ss / float64(len(obs)-1)
}

// Memo deduplicates Estimate calls within one scan. The first caller for a
// (team, season, venue) key runs the fetch; concurrent callers wait on the
// same in-flight computation and observe the identical result. Results —
// including failures — are cached for the life of the scan and never shared
// across scans, so a team's changed results are picked up next scan.
type Memo struct {
	est   *Estimator
	group singleflight.Group

	mu    sync.Mutex
	rates map[string]TeamRate
	errs  map[string]error
}

func NewMemo(est *Estimator) *Memo {
	return &Memo{
		est:   est,
		rates: make(map[string]TeamRate),
		errs:  make(map[string]error),
	}
}

type memoResult struct {
	rate TeamRate
	err  error
}

// Estimate returns the memoized rate for the key, computing it at most once.
func (m *Memo) Estimate(ctx context.Context, teamID, season int, venue fixture.Venue) (TeamRate, error) {
	key := fmt.Sprintf("%d:%d:%s", teamID, season, venue)

	m.mu.Lock()
	if err, ok := m.errs[key]; ok {
		rate := m.rates[key]
		m.mu.Unlock()
		return rate, err
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		rate, err := m.est.Estimate(ctx, teamID, season, venue)
		m.mu.Lock()
		m.rates[key] = rate
		m.errs[key] = err
		m.mu.Unlock()
		return memoResult{rate: rate, err: err}, nil
	})
	if err != nil {
		// singleflight itself never fails here; the estimate error travels
		// inside memoResult so every waiter sees the same value.
		return TeamRate{}, err
	}

	res := v.(memoResult)
	return res.rate, res.err
}
