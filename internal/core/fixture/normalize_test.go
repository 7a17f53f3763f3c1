package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Manchester United", "manchester united"},
		{"Man Utd", "manchester united"},
		{"  Spurs  ", "tottenham hotspur"},
		{"Atlético Madrid", "atletico de madrid"},
		{"Bayern München", "bayern munchen"},
		{"PSG", "paris saint germain"},
		{"Real   Sociedad", "real sociedad"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeName(tc.in), "input %q", tc.in)
	}
}

func TestSameTeam(t *testing.T) {
	assert.True(t, SameTeam("Man United", "Manchester United"))
	assert.True(t, SameTeam("Leeds", "Leeds United"))
	assert.True(t, SameTeam("Wolverhampton Wanderers", "Wolves"))
	assert.True(t, SameTeam("Internazionale", "Inter"))
	assert.True(t, SameTeam("Bayern", "FC Bayern"))

	assert.False(t, SameTeam("Manchester United", "Manchester City"))
	assert.False(t, SameTeam("Everton", "Liverpool"))
	assert.False(t, SameTeam("", "Liverpool"))
}

func TestScoreTotal(t *testing.T) {
	assert.Equal(t, 3, Score{Home: 2, Away: 1}.Total())
	assert.Equal(t, 0, Score{}.Total())
}

func TestFixtureTeam(t *testing.T) {
	f := Fixture{
		Home: TeamRef{ID: 1, Name: "Home FC"},
		Away: TeamRef{ID: 2, Name: "Away FC"},
	}
	assert.Equal(t, 1, f.Team(VenueHome).ID)
	assert.Equal(t, 2, f.Team(VenueAway).ID)
}
