// Package scan drives a horizon of fixtures through the projection pipeline
// with bounded concurrency: discover, estimate home and away rates in
// parallel, project, price, gate, size.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tobikemp/fhscan/internal/config"
	"github.com/tobikemp/fhscan/internal/core/estimate"
	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/core/project"
	"github.com/tobikemp/fhscan/internal/core/stake"
	"github.com/tobikemp/fhscan/internal/core/value"
	"github.com/tobikemp/fhscan/internal/events"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

// Orchestrator owns one configured scan pipeline. It is safe for concurrent
// scans; each scan gets its own rate memo, so estimates are never shared
// across scans.
type Orchestrator struct {
	provider   FixtureProvider
	resolver   *market.Resolver
	estimator  *estimate.Estimator
	params     config.Params
	maxWorkers int

	// bus and store are optional sinks; nil disables them.
	bus   *events.Bus
	store FixtureStore
}

func New(provider FixtureProvider, resolver *market.Resolver, params config.Params, maxWorkers int) (*Orchestrator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Orchestrator{
		provider:   provider,
		resolver:   resolver,
		estimator:  estimate.NewEstimator(provider, params.Model.MinMatchesRequired),
		params:     params,
		maxWorkers: maxWorkers,
	}, nil
}

// WithBus attaches an event bus that receives scan lifecycle events.
func (o *Orchestrator) WithBus(bus *events.Bus) *Orchestrator {
	o.bus = bus
	return o
}

// WithStore attaches a persistence sink for touched fixtures and results.
func (o *Orchestrator) WithStore(store FixtureStore) *Orchestrator {
	o.store = store
	return o
}

// ScanToday scans the current UTC day.
func (o *Orchestrator) ScanToday(ctx context.Context) (*Report, error) {
	return o.ScanDate(ctx, time.Now().UTC())
}

// ScanDate scans the UTC day containing d.
func (o *Orchestrator) ScanDate(ctx context.Context, d time.Time) (*Report, error) {
	day := d.UTC().Truncate(24 * time.Hour)
	return o.ScanRange(ctx, day, day.Add(24*time.Hour))
}

// ScanRange scans all scheduled fixtures with kickoff in [start, end).
//
// Per-fixture failures become Skips; the scan always returns the aggregate.
// On cancellation the already-completed results are returned and in-flight
// fixtures are dropped without partial output.
func (o *Orchestrator) ScanRange(ctx context.Context, start, end time.Time) (*Report, error) {
	report := &Report{
		WindowStart: start.UTC(),
		WindowEnd:   end.UTC(),
		StartedAt:   time.Now().UTC(),
	}

	telemetry.Metrics.ScansRun.Inc()
	telemetry.Metrics.ActiveScans.Inc()
	defer telemetry.Metrics.ActiveScans.Dec()

	fixtures, err := o.provider.ListFixtures(ctx, report.WindowStart, report.WindowEnd, fixture.StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	telemetry.Infof("scan: %s -> %s  fixtures=%d workers=%d",
		report.WindowStart.Format("2006-01-02 15:04"), report.WindowEnd.Format("2006-01-02 15:04"),
		len(fixtures), o.maxWorkers)
	o.publish(events.EventScanStarted, 0, "", report.WindowStart)

	memo := estimate.NewMemo(o.estimator)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.maxWorkers)
	)

	for i := range fixtures {
		if ctx.Err() != nil {
			break
		}
		f := &fixtures[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			res, skip := o.evaluate(ctx, memo, f)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case res != nil:
				report.Results = append(report.Results, *res)
			case skip != nil:
				report.Skips = append(report.Skips, *skip)
			}
		}()
	}
	wg.Wait()

	sort.Slice(report.Results, func(i, j int) bool {
		a, b := report.Results[i].Fixture, report.Results[j].Fixture
		if !a.Kickoff.Equal(b.Kickoff) {
			return a.Kickoff.Before(b.Kickoff)
		}
		return a.ID < b.ID
	})

	report.Duration = time.Since(report.StartedAt)
	telemetry.Metrics.ScanLatency.Record(report.Duration)
	telemetry.Infof("scan: done in %s  results=%d skips=%d signals=%d",
		report.Duration.Round(time.Millisecond), len(report.Results), len(report.Skips), countSignals(report.Results))
	o.publish(events.EventScanComplete, 0, "", report)

	return report, nil
}

// ScanFixture evaluates a single fixture with a fresh memo. Returns (nil, nil)
// when the fixture was dropped by cancellation.
func (o *Orchestrator) ScanFixture(ctx context.Context, f *fixture.Fixture) (*Result, *Skip) {
	return o.evaluate(ctx, estimate.NewMemo(o.estimator), f)
}

// evaluate runs the full per-fixture pipeline. Home rate, away rate, and the
// odds quote are fetched concurrently; the pure stages run in order once the
// blocking stages complete.
func (o *Orchestrator) evaluate(ctx context.Context, memo *estimate.Memo, f *fixture.Fixture) (*Result, *Skip) {
	var (
		wg         sync.WaitGroup
		home, away estimate.TeamRate
		herr, aerr error
		quote      *market.Quote
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		home, herr = memo.Estimate(ctx, f.Home.ID, f.Season, fixture.VenueHome)
	}()
	go func() {
		defer wg.Done()
		away, aerr = memo.Estimate(ctx, f.Away.ID, f.Season, fixture.VenueAway)
	}()

	// Odds resolution does not gate the projection; it runs alongside the
	// estimates and a missing market still produces a result.
	if o.resolver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			quote = o.resolver.Resolve(ctx, f)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil && (errors.Is(herr, context.Canceled) || errors.Is(aerr, context.Canceled)) {
		return nil, nil // cancelled mid-flight: no partial output
	}
	if herr != nil {
		return nil, o.skip(f, "estimate_home", herr)
	}
	if aerr != nil {
		return nil, o.skip(f, "estimate_away", aerr)
	}

	proj, err := project.Project(home, away)
	if err != nil {
		if errors.Is(err, project.ErrInvalidProjection) {
			telemetry.Errorf("scan: fixture %d: %v (lambda from home=%v away=%v) — model bug",
				f.ID, err, home.Mean, away.Mean)
		}
		return nil, o.skip(f, "project", err)
	}

	det := value.Detect(proj, quote, o.params.Model)

	// Policy: only signalled fixtures get a live stake. The calculator can
	// size a non-signalled fixture if some caller wants it, but the scan
	// output zeroes those.
	rec := stake.Zero(o.params.Stake)
	if det.Signal.Overall && quote != nil {
		rec = stake.Calculate(quote.Price, proj.P, *det.EdgePct, proj.CIWidth, o.params.Stake)
		telemetry.Metrics.SignalsFound.Inc()
	}

	res := &Result{
		Fixture:    *f,
		Projection: proj,
		Quote:      quote,
		FairOdds:   det.FairOdds,
		EdgePct:    det.EdgePct,
		Signal:     det.Signal,
		Stake:      rec,
	}

	telemetry.Metrics.FixturesScanned.Inc()
	o.persist(f, res)
	o.publish(events.EventFixtureResult, f.ID, f.LeagueName, res)
	return res, nil
}

// skip classifies a per-fixture failure into the taxonomy and records it.
func (o *Orchestrator) skip(f *fixture.Fixture, stage string, err error) *Skip {
	reason := SkipProviderUnavailable
	switch {
	case errors.Is(err, estimate.ErrInsufficientData), errors.Is(err, project.ErrUnprojectable):
		reason = SkipInsufficientData
	case errors.Is(err, project.ErrInvalidProjection):
		reason = SkipInvalidProjection
	case errors.Is(err, context.DeadlineExceeded):
		reason = SkipProviderTimeout
		telemetry.Metrics.ProviderTimeouts.Inc()
	}

	s := &Skip{
		FixtureID: f.ID,
		League:    f.LeagueName,
		HomeTeam:  f.Home.Name,
		AwayTeam:  f.Away.Name,
		Kickoff:   f.Kickoff,
		Stage:     stage,
		Reason:    reason,
	}

	telemetry.Metrics.FixturesSkipped.Inc()
	telemetry.Debugf("scan: skip fixture %d (%s vs %s) at %s: %s",
		f.ID, f.Home.Name, f.Away.Name, stage, reason)
	o.publish(events.EventFixtureSkip, f.ID, f.LeagueName, s)
	return s
}

func (o *Orchestrator) persist(f *fixture.Fixture, res *Result) {
	if o.store == nil {
		return
	}
	if err := o.store.UpsertFixture(f); err != nil {
		telemetry.Warnf("scan: persist fixture %d: %v", f.ID, err)
	}
	if err := o.store.RecordResult(res); err != nil {
		telemetry.Warnf("scan: persist result %d: %v", f.ID, err)
	}
}

func (o *Orchestrator) publish(t events.EventType, fixtureID int, league string, payload any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(events.Event{
		ID:        strconv.Itoa(fixtureID),
		Type:      t,
		League:    league,
		FixtureID: fixtureID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func countSignals(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Signal.Overall {
			n++
		}
	}
	return n
}
