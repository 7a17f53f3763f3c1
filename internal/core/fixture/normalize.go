package fixture

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName lowercases, strips diacritics, collapses whitespace, then
// resolves through the alias map. Used when matching a fixture to an odds
// feed that identifies events by team name rather than fixture id.
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = collapseWhitespace(s)
	if canonical, ok := teamAliases[s]; ok {
		return canonical
	}
	return s
}

// SameTeam reports whether two raw team names refer to the same team after
// normalization, tolerating prefix/suffix variants ("leeds" vs "leeds united").
func SameTeam(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) { // Mn = Mark, Nonspacing (combining accents)
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// teamAliases maps alternate spellings to canonical team names as odds feeds
// tend to abbreviate them.
var teamAliases = map[string]string{
	// Premier League
	"man united": "manchester united", "man utd": "manchester united", "manchester utd": "manchester united",
	"man city": "manchester city",
	"wolves":   "wolverhampton wanderers", "wolverhampton": "wolverhampton wanderers",
	"brighton": "brighton & hove albion", "brighton and hove albion": "brighton & hove albion",
	"nottm forest": "nottingham forest", "nott'm forest": "nottingham forest",
	"spurs": "tottenham hotspur", "tottenham": "tottenham hotspur",
	"west ham":  "west ham united",
	"newcastle": "newcastle united", "newcastle utd": "newcastle united",
	"leicester": "leicester city",
	"leeds":     "leeds united",

	// La Liga
	"atletico madrid": "atletico de madrid", "atl. madrid": "atletico de madrid", "atl madrid": "atletico de madrid",
	"athletic bilbao": "athletic club", "ath bilbao": "athletic club",
	"celta vigo": "celta de vigo", "celta": "celta de vigo",
	"betis":       "real betis",
	"r. sociedad": "real sociedad",

	// Bundesliga
	"bayern munich": "bayern munchen", "bayern": "bayern munchen", "fc bayern": "bayern munchen",
	"dortmund": "borussia dortmund", "bvb": "borussia dortmund",
	"gladbach": "borussia monchengladbach", "borussia m'gladbach": "borussia monchengladbach",
	"leverkusen": "bayer leverkusen",
	"rb leipzig": "rasenballsport leipzig", "leipzig": "rasenballsport leipzig",

	// Serie A
	"inter": "inter milan", "internazionale": "inter milan",
	"ac milan": "milan",
	"juve":     "juventus",

	// Ligue 1
	"psg": "paris saint germain", "paris sg": "paris saint germain",
	"marseille": "olympique marseille", "om": "olympique marseille",
	"lyon": "olympique lyonnais",
}
