package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// API-Football (fixtures, history, odds)
	APIFootballBaseURL string
	APIFootballKey     string

	// The Odds API (secondary odds source)
	OddsAPIBaseURL string
	OddsAPIKey     string

	// Provider toggles. Priority is the order FH Over 0.5 quotes are tried:
	// lower number wins.
	APIFootballOddsEnabled  bool
	APIFootballOddsPriority int
	OddsAPIEnabled          bool
	OddsAPIPriority         int

	// Service surface
	HTTPHost   string
	HTTPPort   int
	FanoutPort int

	// Scan params file (model thresholds + staking)
	ParamsPath string

	// Persistence
	FixtureDBPath string

	// Scheduling
	ScanHorizonDays int
	MaxWorkers      int
	RequestDelay    time.Duration
	RequestTimeout  time.Duration

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIFootballBaseURL: envStr("APIFOOTBALL_BASE_URL", "https://v3.football.api-sports.io"),
		APIFootballKey:     envStr("APIFOOTBALL_KEY", ""),

		OddsAPIBaseURL: envStr("ODDSAPI_BASE_URL", "https://api.the-odds-api.com"),
		OddsAPIKey:     envStr("ODDSAPI_KEY", ""),

		APIFootballOddsEnabled:  envStr("APIFOOTBALL_ODDS_ENABLED", "true") == "true",
		APIFootballOddsPriority: envInt("APIFOOTBALL_ODDS_PRIORITY", 1),
		OddsAPIEnabled:          envStr("ODDSAPI_ENABLED", "false") == "true",
		OddsAPIPriority:         envInt("ODDSAPI_PRIORITY", 2),

		HTTPHost:   envStr("HTTP_HOST", "0.0.0.0"),
		HTTPPort:   envInt("HTTP_PORT", 8090),
		FanoutPort: envInt("FANOUT_PORT", 8091),

		ParamsPath: envStr("PARAMS_PATH", "internal/config/params.yaml"),

		FixtureDBPath: envStr("FIXTURE_DB_PATH", "data/fixtures.db"),

		ScanHorizonDays: envInt("SCAN_HORIZON_DAYS", 1),
		MaxWorkers:      envInt("MAX_WORKERS", 16),

		// Minimum spacing between requests to one provider. Shared across all
		// scan workers via the provider's rate limiter.
		RequestDelay:   time.Duration(envInt("REQUEST_DELAY_MS", 1500)) * time.Millisecond,
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
