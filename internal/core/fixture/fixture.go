// Package fixture holds the match records the scanner reads: fixtures,
// team references, and scores as delivered by the fixture provider.
package fixture

import "time"

// Venue distinguishes a team's home sample from its away sample.
type Venue string

const (
	VenueHome Venue = "home"
	VenueAway Venue = "away"
)

// Status is the coarse fixture lifecycle the scanner cares about.
// Providers report many raw states; anything that is neither scheduled
// nor finished collapses to StatusOther.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusFinished  Status = "finished"
	StatusOther     Status = "other"
)

// TeamRef identifies a team. The id is the identity; the name is display-only.
type TeamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Score is a goals pair at some cut of the match.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Total returns combined goals from both sides.
func (s Score) Total() int { return s.Home + s.Away }

// Fixture is one match as reported by the provider. The scanner only reads
// fixtures; it never mutates them. Kickoff is always UTC. FullTime and
// HalfTime are present only when Status is StatusFinished, and HalfTime may
// still be missing for leagues whose feed omits halftime scores.
type Fixture struct {
	ID         int       `json:"id"`
	LeagueID   int       `json:"league_id"`
	LeagueName string    `json:"league_name"`
	Country    string    `json:"country,omitempty"`
	Season     int       `json:"season"`
	Kickoff    time.Time `json:"kickoff"`
	Status     Status    `json:"status"`
	Home       TeamRef   `json:"home"`
	Away       TeamRef   `json:"away"`
	FullTime   *Score    `json:"full_time,omitempty"`
	HalfTime   *Score    `json:"half_time,omitempty"`
}

// Team returns the fixture's team reference for the given venue.
func (f *Fixture) Team(v Venue) TeamRef {
	if v == VenueHome {
		return f.Home
	}
	return f.Away
}
