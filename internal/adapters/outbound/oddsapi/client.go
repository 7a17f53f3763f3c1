// Package oddsapi adapts The Odds API as a secondary FH Over 0.5 source.
// Events there carry no fixture ids, so fixtures are matched by normalized
// team names plus kickoff proximity.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

const (
	// eventCacheTTL bounds how long one odds snapshot serves a scan. The
	// feed covers whole leagues per call, so one fetch prices many fixtures.
	eventCacheTTL = 10 * time.Minute

	// kickoffWindow rejects same-pair events too far from the fixture's
	// kickoff (doubleheaders, postponed replays).
	kickoffWindow = 6 * time.Hour
)

// defaultSportKeys are the soccer competitions queried per snapshot.
var defaultSportKeys = []string{
	"soccer_epl", "soccer_uefa_champs_league", "soccer_spain_la_liga",
	"soccer_germany_bundesliga", "soccer_italy_serie_a", "soccer_france_ligue_one",
}

type oddsEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	CommenceTime string          `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []oddsBookmaker `json:"bookmakers"`
}

type oddsBookmaker struct {
	Key     string       `json:"key"`
	Markets []oddsMarket `json:"markets"`
}

type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

type oddsOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Provider implements market.Provider over The Odds API.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	sportKeys  []string

	mu        sync.Mutex
	cache     []oddsEvent
	fetchedAt time.Time
}

func NewProvider(baseURL, apiKey string, requestDelay, timeout time.Duration) *Provider {
	if requestDelay <= 0 {
		requestDelay = time.Second
	}
	return &Provider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(requestDelay), 1),
		timeout:    timeout,
		sportKeys:  defaultSportKeys,
	}
}

func (p *Provider) Name() string { return "the-odds-api" }

// FHOver05 matches the fixture against the cached event snapshot and returns
// the first bookmaker's first-half totals Over price at the 0.5 line.
func (p *Provider) FHOver05(ctx context.Context, f *fixture.Fixture) (*market.Quote, error) {
	events, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i := range events {
		ev := &events[i]
		if !p.matches(ev, f) {
			continue
		}
		if price, book := over05Price(ev); price > 1.0 {
			return &market.Quote{
				Price:      price,
				Provider:   p.Name() + "/" + book,
				ObservedAt: time.Now().UTC(),
			}, nil
		}
	}
	return nil, nil
}

// snapshot returns cached events, refreshing them when stale.
func (p *Provider) snapshot(ctx context.Context) ([]oddsEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache != nil && time.Since(p.fetchedAt) < eventCacheTTL {
		return p.cache, nil
	}

	var all []oddsEvent
	for _, key := range p.sportKeys {
		events, err := p.fetchSport(ctx, key)
		if err != nil {
			// One dead competition feed shouldn't blank the others.
			telemetry.Warnf("oddsapi: %s: %v", key, err)
			continue
		}
		all = append(all, events...)
	}
	if all == nil && p.cache == nil {
		return nil, fmt.Errorf("oddsapi: no competitions returned events")
	}

	p.cache = all
	p.fetchedAt = time.Now()
	telemetry.Debugf("oddsapi: snapshot %d events (%d competitions)", len(all), len(p.sportKeys))
	return p.cache, nil
}

func (p *Provider) fetchSport(ctx context.Context, sportKey string) ([]oddsEvent, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("apiKey", p.apiKey)
	q.Set("regions", "eu")
	q.Set("markets", "totals_h1")
	q.Set("oddsFormat", "decimal")

	u := fmt.Sprintf("%s/v4/sports/%s/odds?%s", p.baseURL, sportKey, q.Encode())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	telemetry.Metrics.ProviderCalls.Inc()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		telemetry.Metrics.ProviderErrors.Inc()
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		telemetry.Metrics.ProviderErrors.Inc()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var events []oddsEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return events, nil
}

// matches pairs an odds event with a fixture by team names and kickoff time.
func (p *Provider) matches(ev *oddsEvent, f *fixture.Fixture) bool {
	if !fixture.SameTeam(ev.HomeTeam, f.Home.Name) || !fixture.SameTeam(ev.AwayTeam, f.Away.Name) {
		return false
	}
	commence, err := time.Parse(time.RFC3339, ev.CommenceTime)
	if err != nil {
		return false
	}
	diff := commence.Sub(f.Kickoff)
	if diff < 0 {
		diff = -diff
	}
	return diff <= kickoffWindow
}

// over05Price scans an event's bookmakers for the first-half totals Over
// outcome at the 0.5 line and returns the first usable price.
func over05Price(ev *oddsEvent) (float64, string) {
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != "totals_h1" {
				continue
			}
			for _, out := range m.Outcomes {
				if !strings.EqualFold(out.Name, "Over") {
					continue
				}
				if out.Point == nil || *out.Point != 0.5 {
					continue
				}
				if out.Price > 1.0 {
					return out.Price, bm.Key
				}
			}
		}
	}
	return 0, ""
}
