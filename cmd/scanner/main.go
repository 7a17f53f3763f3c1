package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/tobikemp/fhscan/internal/adapters/inbound/httpapi"
	"github.com/tobikemp/fhscan/internal/adapters/outbound/apifootball"
	"github.com/tobikemp/fhscan/internal/adapters/outbound/oddsapi"
	"github.com/tobikemp/fhscan/internal/config"
	"github.com/tobikemp/fhscan/internal/core/market"
	"github.com/tobikemp/fhscan/internal/core/scan"
	"github.com/tobikemp/fhscan/internal/events"
	"github.com/tobikemp/fhscan/internal/fanout"
	"github.com/tobikemp/fhscan/internal/store"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting scanner")

	bus := events.NewBus()

	// ── Model + staking params ──────────────────────────────────
	params, err := config.LoadParams(cfg.ParamsPath)
	if err != nil {
		telemetry.Errorf("Failed to load params: %v", err)
		os.Exit(1)
	}

	// ── Fixture + odds providers ────────────────────────────────
	if cfg.APIFootballKey == "" {
		telemetry.Errorf("API-Football key missing — set APIFOOTBALL_KEY in .env")
		os.Exit(1)
	}
	client := apifootball.NewClient(cfg.APIFootballBaseURL, cfg.APIFootballKey, cfg.RequestDelay, cfg.RequestTimeout)
	resolver := market.NewResolver(buildOddsProviders(cfg, client)...)

	// ── Persistence ─────────────────────────────────────────────
	fixtureStore, err := store.Open(cfg.FixtureDBPath)
	if err != nil {
		telemetry.Warnf("Fixture store disabled: %v", err)
		fixtureStore = nil
	}

	// ── Orchestrator ────────────────────────────────────────────
	orch, err := scan.New(client, resolver, params, cfg.MaxWorkers)
	if err != nil {
		telemetry.Errorf("Scan setup: %v", err)
		os.Exit(1)
	}
	orch.WithBus(bus)
	if fixtureStore != nil {
		orch.WithStore(fixtureStore)
	}

	// ── Fanout ──────────────────────────────────────────────────
	fanoutServer := fanout.NewServer(bus)
	go func() {
		if err := fanoutServer.ListenAndServe(cfg.FanoutPort); err != nil {
			telemetry.Warnf("Fanout server: %v", err)
		}
	}()

	// ── HTTP API ────────────────────────────────────────────────
	apiHandler := httpapi.NewHandler(orch, client)
	if fixtureStore != nil {
		apiHandler.WithStore(fixtureStore)
	}
	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // scans fan out many rate-limited calls
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Errorf("HTTP server: %v", err)
			os.Exit(1)
		}
	}()
	telemetry.Infof("API listening on %q", addr)

	// ── Shutdown ────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	if fixtureStore != nil {
		fixtureStore.Close()
	}

	telemetry.Infof("Shutdown complete  scans=%d  scanned=%d  skipped=%d  signals=%d  provider_errors=%d",
		telemetry.Metrics.ScansRun.Value(),
		telemetry.Metrics.FixturesScanned.Value(),
		telemetry.Metrics.FixturesSkipped.Value(),
		telemetry.Metrics.SignalsFound.Value(),
		telemetry.Metrics.ProviderErrors.Value(),
	)
}

// buildOddsProviders assembles enabled odds sources sorted by priority
// (lower number tried first).
func buildOddsProviders(cfg *config.Config, client *apifootball.Client) []market.Provider {
	type ranked struct {
		priority int
		provider market.Provider
	}
	var list []ranked

	if cfg.APIFootballOddsEnabled {
		list = append(list, ranked{cfg.APIFootballOddsPriority, apifootball.NewOddsProvider(client)})
	}
	if cfg.OddsAPIEnabled && cfg.OddsAPIKey != "" {
		list = append(list, ranked{cfg.OddsAPIPriority,
			oddsapi.NewProvider(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.RequestDelay, cfg.RequestTimeout)})
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].priority < list[j].priority })

	out := make([]market.Provider, 0, len(list))
	for _, r := range list {
		telemetry.Infof("Odds provider enabled: %s (priority %d)", r.provider.Name(), r.priority)
		out = append(out, r.provider)
	}
	if len(out) == 0 {
		telemetry.Warnf("No odds providers enabled — scans will report NO_MARKET everywhere")
	}
	return out
}
