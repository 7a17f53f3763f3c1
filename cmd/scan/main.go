// Command scan runs one scan from the terminal and prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tobikemp/fhscan/internal/adapters/outbound/apifootball"
	"github.com/tobikemp/fhscan/internal/adapters/outbound/oddsapi"
	"github.com/tobikemp/fhscan/internal/config"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/core/scan"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

func main() {
	var (
		dateFlag = flag.String("date", "", "scan one UTC day (YYYY-MM-DD, default today)")
		fromFlag = flag.String("from", "", "window start (YYYY-MM-DD, with -to)")
		toFlag   = flag.String("to", "", "window end, exclusive (YYYY-MM-DD, with -from)")
		jsonFlag = flag.Bool("json", false, "emit the raw report as JSON")
	)
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	start, end, err := window(cfg, *dateFlag, *fromFlag, *toFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	params, err := config.LoadParams(cfg.ParamsPath)
	if err != nil {
		telemetry.Errorf("Failed to load params: %v", err)
		os.Exit(1)
	}
	if cfg.APIFootballKey == "" {
		telemetry.Errorf("API-Football key missing — set APIFOOTBALL_KEY in .env")
		os.Exit(1)
	}

	client := apifootball.NewClient(cfg.APIFootballBaseURL, cfg.APIFootballKey, cfg.RequestDelay, cfg.RequestTimeout)

	var providers []market.Provider
	if cfg.APIFootballOddsEnabled {
		providers = append(providers, apifootball.NewOddsProvider(client))
	}
	if cfg.OddsAPIEnabled && cfg.OddsAPIKey != "" {
		providers = append(providers, oddsapi.NewProvider(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.RequestDelay, cfg.RequestTimeout))
	}

	orch, err := scan.New(client, market.NewResolver(providers...), params, cfg.MaxWorkers)
	if err != nil {
		telemetry.Errorf("Scan setup: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := orch.ScanRange(ctx, start, end)
	if err != nil {
		telemetry.Errorf("Scan failed: %v", err)
		os.Exit(1)
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		return
	}
	printReport(report)
}

// window resolves the flags to a [start, end) UTC range. With no flags the
// range covers the configured scan horizon starting today.
func window(cfg *config.Config, date, from, to string) (time.Time, time.Time, error) {
	day := func(s string) (time.Time, error) {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad date %q: want YYYY-MM-DD", s)
		}
		return t.UTC(), nil
	}

	switch {
	case from != "" || to != "":
		if from == "" || to == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("-from and -to must be given together")
		}
		start, err := day(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := day(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if !start.Before(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("-from must be before -to")
		}
		return start, end, nil
	case date != "":
		start, err := day(date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, start.Add(24 * time.Hour), nil
	default:
		horizon := cfg.ScanHorizonDays
		if horizon < 1 {
			horizon = 1
		}
		start := time.Now().UTC().Truncate(24 * time.Hour)
		return start, start.Add(time.Duration(horizon) * 24 * time.Hour), nil
	}
}

func printReport(report *scan.Report) {
	fmt.Printf("\nScan %s -> %s  (%s)\n\n",
		report.WindowStart.Format("2006-01-02"), report.WindowEnd.Format("2006-01-02"),
		report.Duration.Round(time.Millisecond))

	if len(report.Results) == 0 {
		fmt.Println("No fixtures evaluated.")
	} else {
		fmt.Printf("%-7s %-20s %-32s %6s %6s %7s %7s %7s  %s\n",
			"KICKOFF", "LEAGUE", "MATCH", "P", "FAIR", "PRICE", "EDGE%", "STAKE", "SIGNAL")
		for _, r := range report.Results {
			price, edge := "-", "-"
			if r.Quote != nil {
				price = fmt.Sprintf("%.2f", r.Quote.Price)
			}
			if r.EdgePct != nil {
				edge = fmt.Sprintf("%+.1f", *r.EdgePct)
			}

			signal := "-"
			if r.Signal.Overall {
				signal = "BET"
			} else if len(r.Signal.Reasons) > 0 {
				signal = strings.Join(r.Signal.Reasons, ",")
			}

			fmt.Printf("%-7s %-20s %-32s %6.3f %6.2f %7s %7s %7.2f  %s\n",
				r.Fixture.Kickoff.Format("15:04"),
				trunc(r.Fixture.LeagueName, 20),
				trunc(r.Fixture.Home.Name+" v "+r.Fixture.Away.Name, 32),
				r.Projection.P, r.FairOdds, price, edge, r.Stake.Amount, signal)
		}
	}

	if len(report.Skips) > 0 {
		fmt.Printf("\nSkipped %d:\n", len(report.Skips))
		for _, s := range report.Skips {
			fmt.Printf("  %-32s %-14s %s\n", trunc(s.HomeTeam+" v "+s.AwayTeam, 32), s.Stage, s.Reason)
		}
	}
	fmt.Println()
}

func trunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
