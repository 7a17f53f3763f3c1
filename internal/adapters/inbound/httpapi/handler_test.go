package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobikemp/fhscan/internal/config"
	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/core/scan"
)

// fakeBackend doubles as fixture provider, history source, and odds feed so a
// real orchestrator can run end to end against canned data.
type fakeBackend struct {
	fixtures map[int]*fixture.Fixture
	history  map[int][]fixture.Fixture
	price    float64
}

func (b *fakeBackend) ListFixtures(_ context.Context, start, end time.Time, _ fixture.Status) ([]fixture.Fixture, error) {
	var out []fixture.Fixture
	for _, f := range b.fixtures {
		if !f.Kickoff.Before(start) && f.Kickoff.Before(end) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (b *fakeBackend) TeamHistory(_ context.Context, teamID, _, _ int) ([]fixture.Fixture, error) {
	return b.history[teamID], nil
}

func (b *fakeBackend) GetFixture(_ context.Context, id int) (*fixture.Fixture, error) {
	return b.fixtures[id], nil
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) FHOver05(_ context.Context, _ *fixture.Fixture) (*market.Quote, error) {
	if b.price == 0 {
		return nil, nil
	}
	return &market.Quote{Price: b.price, Provider: "fake", ObservedAt: time.Now()}, nil
}

func history(teamID int, venue fixture.Venue, n, htGoals int) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, n)
	for i := 0; i < n; i++ {
		f := fixture.Fixture{
			ID: teamID*1000 + i, Season: 2025, Status: fixture.StatusFinished,
			HalfTime: &fixture.Score{Home: htGoals},
			FullTime: &fixture.Score{Home: htGoals, Away: 1},
		}
		if venue == fixture.VenueHome {
			f.Home = fixture.TeamRef{ID: teamID}
			f.Away = fixture.TeamRef{ID: 9000 + i}
		} else {
			f.Away = fixture.TeamRef{ID: teamID}
			f.Home = fixture.TeamRef{ID: 9000 + i}
		}
		out = append(out, f)
	}
	return out
}

func newTestMux(t *testing.T) (*http.ServeMux, *fakeBackend) {
	t.Helper()

	kickoff := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	backend := &fakeBackend{
		price: 1.40,
		fixtures: map[int]*fixture.Fixture{
			101: {
				ID: 101, LeagueID: 39, LeagueName: "Premier League", Season: 2025,
				Kickoff: kickoff, Status: fixture.StatusScheduled,
				Home: fixture.TeamRef{ID: 1, Name: "Home FC"},
				Away: fixture.TeamRef{ID: 2, Name: "Away FC"},
			},
		},
		history: map[int][]fixture.Fixture{
			1: history(1, fixture.VenueHome, 12, 2),
			2: history(2, fixture.VenueAway, 10, 1),
		},
	}

	orch, err := scan.New(backend, market.NewResolver(backend), config.DefaultParams(), 2)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(orch, backend).RegisterRoutes(mux)
	return mux, backend
}

func doGET(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := doGET(t, mux, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestGetFixture(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doGET(t, mux, "/fixtures/101")
	require.Equal(t, http.StatusOK, rec.Code)
	var f fixture.Fixture
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, 101, f.ID)
	assert.Equal(t, "Home FC", f.Home.Name)
}

func TestGetFixtureNotFound(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := doGET(t, mux, "/fixtures/404404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFixtureBadID(t *testing.T) {
	mux, _ := newTestMux(t)
	assert.Equal(t, http.StatusBadRequest, doGET(t, mux, "/fixtures/abc").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(t, mux, "/fixtures/-3").Code)
}

func TestScanFixture(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := doGET(t, mux, "/fixtures/101/scan")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Result *scan.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Result)
	assert.Equal(t, 101, body.Result.Fixture.ID)
	assert.True(t, body.Result.Signal.Overall)
	assert.Greater(t, body.Result.Stake.Amount, 0.0)
}

func TestScanDateBadFormat(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := doGET(t, mux, "/scan/date/14-03-2026")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanDate(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := doGET(t, mux, "/scan/date/2026-03-14")
	require.Equal(t, http.StatusOK, rec.Code)

	var report scan.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Results, 1)
	assert.Equal(t, 101, report.Results[0].Fixture.ID)
	assert.Empty(t, report.Skips)
}
