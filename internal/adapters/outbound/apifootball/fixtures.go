package apifootball

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tobikemp/fhscan/internal/core/fixture"
)

// --- API-Football fixture shapes ---

type apiFixture struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"` // RFC3339
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Season  int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home apiTeam `json:"home"`
		Away apiTeam `json:"away"`
	} `json:"teams"`
	Score struct {
		Halftime apiScore `json:"halftime"`
		Fulltime apiScore `json:"fulltime"`
	} `json:"score"`
}

type apiTeam struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type apiScore struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// ListFixtures returns fixtures with kickoff in [start, end). API-Football
// windows are whole dates, so the response is filtered back to the exact
// bounds client-side.
func (c *Client) ListFixtures(ctx context.Context, start, end time.Time, status fixture.Status) ([]fixture.Fixture, error) {
	q := url.Values{}
	q.Set("from", start.UTC().Format("2006-01-02"))
	// `to` is inclusive; an exclusive end at midnight must not pull the next day.
	q.Set("to", end.UTC().Add(-time.Second).Format("2006-01-02"))
	q.Set("timezone", "UTC")
	if status == fixture.StatusScheduled {
		q.Set("status", "NS")
	}

	var rows []apiFixture
	if err := c.get(ctx, "/fixtures", q.Encode(), &rows); err != nil {
		return nil, err
	}

	var out []fixture.Fixture
	for _, row := range rows {
		f, err := mapFixture(row)
		if err != nil {
			continue
		}
		if f.Kickoff.Before(start) || !f.Kickoff.Before(end) {
			continue
		}
		if status != "" && f.Status != status {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// TeamHistory returns up to lastN finished fixtures for a team in a season,
// most recent first, halftime scores included where the feed has them.
func (c *Client) TeamHistory(ctx context.Context, teamID, season, lastN int) ([]fixture.Fixture, error) {
	q := url.Values{}
	q.Set("team", strconv.Itoa(teamID))
	q.Set("season", strconv.Itoa(season))
	q.Set("last", strconv.Itoa(lastN))
	q.Set("status", "FT")
	q.Set("timezone", "UTC")

	var rows []apiFixture
	if err := c.get(ctx, "/fixtures", q.Encode(), &rows); err != nil {
		return nil, err
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		f, err := mapFixture(row)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// GetFixture fetches one fixture by id.
func (c *Client) GetFixture(ctx context.Context, id int) (*fixture.Fixture, error) {
	var rows []apiFixture
	if err := c.get(ctx, "/fixtures", "id="+strconv.Itoa(id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	f, err := mapFixture(rows[0])
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func mapFixture(row apiFixture) (fixture.Fixture, error) {
	kickoff, err := time.Parse(time.RFC3339, row.Fixture.Date)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("fixture %d: bad date %q", row.Fixture.ID, row.Fixture.Date)
	}

	f := fixture.Fixture{
		ID:         row.Fixture.ID,
		LeagueID:   row.League.ID,
		LeagueName: row.League.Name,
		Country:    row.League.Country,
		Season:     row.League.Season,
		Kickoff:    kickoff.UTC(),
		Status:     mapStatus(row.Fixture.Status.Short),
		Home:       fixture.TeamRef{ID: row.Teams.Home.ID, Name: row.Teams.Home.Name},
		Away:       fixture.TeamRef{ID: row.Teams.Away.ID, Name: row.Teams.Away.Name},
	}

	if f.Status == fixture.StatusFinished {
		f.FullTime = mapScore(row.Score.Fulltime)
		f.HalfTime = mapScore(row.Score.Halftime)
	}
	return f, nil
}

// mapStatus collapses API-Football's short codes to the scanner's lifecycle.
func mapStatus(short string) fixture.Status {
	switch short {
	case "NS", "TBD":
		return fixture.StatusScheduled
	case "FT", "AET", "PEN":
		return fixture.StatusFinished
	default:
		return fixture.StatusOther
	}
}

func mapScore(s apiScore) *fixture.Score {
	if s.Home == nil || s.Away == nil {
		return nil
	}
	return &fixture.Score{Home: *s.Home, Away: *s.Away}
}
