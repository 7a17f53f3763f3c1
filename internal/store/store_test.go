package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/project"
	"github.com/tobikemp/fhscan/internal/core/scan"
	"github.com/tobikemp/fhscan/internal/core/stake"
	"github.com/tobikemp/fhscan/internal/core/value"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fixtures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFixture() *fixture.Fixture {
	return &fixture.Fixture{
		ID: 101, LeagueID: 39, LeagueName: "Premier League", Country: "England",
		Season:  2025,
		Kickoff: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
		Status:  fixture.StatusScheduled,
		Home:    fixture.TeamRef{ID: 1, Name: "Home FC"},
		Away:    fixture.TeamRef{ID: 2, Name: "Away FC"},
	}
}

func TestUpsertAndGetFixture(t *testing.T) {
	s := openTestStore(t)
	f := sampleFixture()

	require.NoError(t, s.UpsertFixture(f))

	got, err := s.GetFixture(101)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *f, *got)
}

func TestUpsertReplacesSnapshot(t *testing.T) {
	s := openTestStore(t)
	f := sampleFixture()
	require.NoError(t, s.UpsertFixture(f))

	// Fixture finishes: status flips and scores appear.
	f.Status = fixture.StatusFinished
	f.HalfTime = &fixture.Score{Home: 1, Away: 0}
	f.FullTime = &fixture.Score{Home: 2, Away: 1}
	require.NoError(t, s.UpsertFixture(f))

	got, err := s.GetFixture(101)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fixture.StatusFinished, got.Status)
	require.NotNil(t, got.HalfTime)
	assert.Equal(t, 1, got.HalfTime.Total())
	require.NotNil(t, got.FullTime)
	assert.Equal(t, 3, got.FullTime.Total())
}

func TestGetFixtureAbsent(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetFixture(999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordResult(t *testing.T) {
	s := openTestStore(t)
	f := sampleFixture()
	require.NoError(t, s.UpsertFixture(f))

	edge := 14.42
	res := &scan.Result{
		Fixture: *f,
		Projection: project.Projection{
			Lambda: 1.70, P: 0.8173, PLo: 0.76, PHi: 0.87, CIWidth: 0.11,
			NHome: 12, NAway: 10,
		},
		FairOdds: 1.2235,
		EdgePct:  &edge,
		Signal:   value.Signal{LambdaOK: true, SamplesOK: true, EdgeOK: true, CIOK: true, Overall: true},
		Stake:    stake.Recommendation{Mode: stake.ModeDynamic, Fraction: 0.03, Amount: 30},
	}
	require.NoError(t, s.RecordResult(res))

	at, err := s.LatestResultAt(101)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), at, 5*time.Second)
}

func TestRecordResultNoMarket(t *testing.T) {
	s := openTestStore(t)
	f := sampleFixture()

	res := &scan.Result{
		Fixture:    *f,
		Projection: project.Projection{Lambda: 1.70, P: 0.8173, NHome: 12, NAway: 10},
		FairOdds:   1.2235,
		Signal:     value.Signal{Reasons: []string{"edge"}},
		Stake:      stake.Recommendation{Mode: stake.ModeDynamic},
	}
	require.NoError(t, s.RecordResult(res), "nil quote and edge persist as NULLs")
}

func TestLatestResultAtEmpty(t *testing.T) {
	s := openTestStore(t)
	at, err := s.LatestResultAt(123)
	require.NoError(t, err)
	assert.True(t, at.IsZero())
}
