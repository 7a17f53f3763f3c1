package scan

import (
	"context"
	"time"

	"github.com/tobikemp/fhscan/internal/core/estimate"
	"github.com/tobikemp/fhscan/internal/core/fixture"
)

// FixtureProvider is the upstream fixture feed the orchestrator consumes.
// It extends the estimator's history slice with window discovery.
type FixtureProvider interface {
	estimate.HistoryProvider

	// ListFixtures returns fixtures with kickoff in [start, end) filtered by
	// status. An empty status matches everything.
	ListFixtures(ctx context.Context, start, end time.Time, status fixture.Status) ([]fixture.Fixture, error)
}

// FixtureStore is the optional persistence sink. Scans upsert the fixtures
// they touch and append emitted results for audit; the service surface reads
// fixtures back by id.
type FixtureStore interface {
	UpsertFixture(f *fixture.Fixture) error
	GetFixture(id int) (*fixture.Fixture, error)
	RecordResult(r *Result) error
}
