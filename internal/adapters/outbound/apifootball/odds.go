package apifootball

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/market"
)

// Bookmakers tried in order when several carry the first-half totals market.
// Priority, not best price: the scanner wants a repeatable reference quote.
var preferredBookmakers = []string{
	"pinnacle", "bet365", "williamhill", "william hill", "1xbet", "unibet", "marathon",
}

// OddsProvider serves FH Over 0.5 quotes from the API-Football odds endpoint.
// Separate from Client so the odds feed can be toggled off while fixtures
// stay on.
type OddsProvider struct {
	client *Client
}

func NewOddsProvider(client *Client) *OddsProvider {
	return &OddsProvider{client: client}
}

func (p *OddsProvider) Name() string { return "api-football" }

// --- odds response shapes ---

type apiOddsRow struct {
	Bookmakers []struct {
		Name string `json:"name"`
		Bets []struct {
			Name   string `json:"name"`
			Values []struct {
				Value string `json:"value"`
				Odd   string `json:"odd"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

// FHOver05 returns the first usable Over 0.5 price from the first-half goals
// market, preferring the bookmaker priority list. (nil, nil) when the market
// is absent.
func (p *OddsProvider) FHOver05(ctx context.Context, f *fixture.Fixture) (*market.Quote, error) {
	var rows []apiOddsRow
	if err := p.client.get(ctx, "/odds", "fixture="+strconv.Itoa(f.ID), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	type candidate struct {
		name  string
		price float64
	}
	var candidates []candidate

	for _, bm := range rows[0].Bookmakers {
		for _, bet := range bm.Bets {
			if !isFirstHalfTotals(bet.Name) {
				continue
			}
			for _, v := range bet.Values {
				if !strings.EqualFold(strings.TrimSpace(v.Value), "Over 0.5") {
					continue
				}
				price, err := strconv.ParseFloat(strings.TrimSpace(v.Odd), 64)
				if err != nil || price <= 1.0 {
					continue
				}
				candidates = append(candidates, candidate{name: strings.ToLower(bm.Name), price: price})
			}
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	pick := candidates[0]
	for _, pref := range preferredBookmakers {
		found := false
		for _, c := range candidates {
			if strings.Contains(c.name, pref) {
				pick = c
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	return &market.Quote{
		Price:      pick.price,
		Provider:   p.Name() + "/" + pick.name,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// isFirstHalfTotals matches the market label variants API-Football uses for
// first-half goal totals.
func isFirstHalfTotals(name string) bool {
	n := strings.ToLower(name)
	if !strings.Contains(n, "over/under") && !strings.Contains(n, "goals over") {
		return false
	}
	return strings.Contains(n, "first half") || strings.Contains(n, "1st half")
}
