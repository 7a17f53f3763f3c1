// Package store persists scanned fixtures and scan results in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/scan"
	"github.com/tobikemp/fhscan/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	maxStoreBytes int64   = 256 << 20 // 256 MiB
	evictPct      float64 = 0.10      // evict oldest 10% of result rows
	vacuumInterval        = 10        // incremental vacuum every N evictions
)

// Store is a FIFO-capped SQLite database of fixtures and scan results.
// Fixtures are upserted in place; results only grow, so the size cap evicts
// the oldest result rows.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	cachedSize   int64
	resultCount  int64
	evictCounter int
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	var avMode int
	if err := db.QueryRow(`PRAGMA auto_vacuum`).Scan(&avMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("read auto_vacuum: %w", err)
	}
	if avMode != 2 {
		if _, err := db.Exec(`PRAGMA auto_vacuum = INCREMENTAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set auto_vacuum: %w", err)
		}
		if _, err := db.Exec(`VACUUM`); err != nil {
			telemetry.Warnf("store: VACUUM to enable auto_vacuum failed: %v", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	var size int64
	db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size)
	var resultCount int64
	db.QueryRow(`SELECT COUNT(*) FROM scan_results`).Scan(&resultCount)

	telemetry.Plainf("store: opened %s  size=%d  results=%d", path, size, resultCount)
	return &Store{db: db, cachedSize: size, resultCount: resultCount}, nil
}

const schema = `CREATE TABLE IF NOT EXISTS fixtures (
	id           INTEGER PRIMARY KEY,
	league_id    INTEGER NOT NULL,
	league_name  TEXT    NOT NULL,
	country      TEXT    NOT NULL DEFAULT '',
	season       INTEGER NOT NULL,
	kickoff      TEXT    NOT NULL,
	status       TEXT    NOT NULL,
	home_id      INTEGER NOT NULL,
	home_name    TEXT    NOT NULL,
	away_id      INTEGER NOT NULL,
	away_name    TEXT    NOT NULL,

	-- Finished fixtures only (nullable group)
	ft_home      INTEGER,
	ft_away      INTEGER,
	ht_home      INTEGER,
	ht_away      INTEGER,

	updated_at   TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_results (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	fixture_id   INTEGER NOT NULL,
	scanned_at   TEXT    NOT NULL,

	lambda       REAL    NOT NULL,
	prob         REAL    NOT NULL,
	prob_lo      REAL    NOT NULL,
	prob_hi      REAL    NOT NULL,
	ci_width     REAL    NOT NULL,
	n_home       INTEGER NOT NULL,
	n_away       INTEGER NOT NULL,

	fair_odds    REAL    NOT NULL,
	quote_price  REAL,
	quote_source TEXT,
	edge_pct     REAL,

	signal       INTEGER NOT NULL,
	reasons      TEXT    NOT NULL DEFAULT '',

	stake_mode     TEXT NOT NULL,
	stake_fraction REAL NOT NULL,
	stake_amount   REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_results_fixture ON scan_results (fixture_id);`

// UpsertFixture writes the fixture row, replacing any previous snapshot.
func (s *Store) UpsertFixture(f *fixture.Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO fixtures (
			id, league_id, league_name, country, season, kickoff, status,
			home_id, home_name, away_id, away_name,
			ft_home, ft_away, ht_home, ht_away, updated_at
		) VALUES (?,?,?,?,?,?,?, ?,?,?,?, ?,?,?,?, ?)
		ON CONFLICT(id) DO UPDATE SET
			league_id=excluded.league_id, league_name=excluded.league_name,
			country=excluded.country, season=excluded.season,
			kickoff=excluded.kickoff, status=excluded.status,
			home_id=excluded.home_id, home_name=excluded.home_name,
			away_id=excluded.away_id, away_name=excluded.away_name,
			ft_home=excluded.ft_home, ft_away=excluded.ft_away,
			ht_home=excluded.ht_home, ht_away=excluded.ht_away,
			updated_at=excluded.updated_at`,
		f.ID, f.LeagueID, f.LeagueName, f.Country, f.Season,
		f.Kickoff.UTC().Format(time.RFC3339), string(f.Status),
		f.Home.ID, f.Home.Name, f.Away.ID, f.Away.Name,
		scoreCol(f.FullTime, true), scoreCol(f.FullTime, false),
		scoreCol(f.HalfTime, true), scoreCol(f.HalfTime, false),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert fixture %d: %w", f.ID, err)
	}
	return nil
}

// GetFixture returns a stored fixture, or (nil, nil) when absent.
func (s *Store) GetFixture(id int) (*fixture.Fixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT league_id, league_name, country, season, kickoff, status,
			home_id, home_name, away_id, away_name,
			ft_home, ft_away, ht_home, ht_away
		 FROM fixtures WHERE id = ?`, id)

	var (
		f              fixture.Fixture
		kickoff, state string
		ftH, ftA       sql.NullInt64
		htH, htA       sql.NullInt64
	)
	f.ID = id
	err := row.Scan(&f.LeagueID, &f.LeagueName, &f.Country, &f.Season, &kickoff, &state,
		&f.Home.ID, &f.Home.Name, &f.Away.ID, &f.Away.Name,
		&ftH, &ftA, &htH, &htA)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fixture %d: %w", id, err)
	}

	t, err := time.Parse(time.RFC3339, kickoff)
	if err != nil {
		return nil, fmt.Errorf("fixture %d: bad kickoff %q", id, kickoff)
	}
	f.Kickoff = t.UTC()
	f.Status = fixture.Status(state)
	f.FullTime = scoreFromCols(ftH, ftA)
	f.HalfTime = scoreFromCols(htH, htA)
	return &f, nil
}

// RecordResult appends one scan result row for a fixture.
func (s *Store) RecordResult(res *scan.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var quotePrice, edgePct any
	var quoteSource any
	if res.Quote != nil {
		quotePrice = res.Quote.Price
		quoteSource = res.Quote.Provider
	}
	if res.EdgePct != nil {
		edgePct = *res.EdgePct
	}

	signal := 0
	if res.Signal.Overall {
		signal = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO scan_results (
			fixture_id, scanned_at,
			lambda, prob, prob_lo, prob_hi, ci_width, n_home, n_away,
			fair_odds, quote_price, quote_source, edge_pct,
			signal, reasons,
			stake_mode, stake_fraction, stake_amount
		) VALUES (?,?, ?,?,?,?,?,?,?, ?,?,?,?, ?,?, ?,?,?)`,
		res.Fixture.ID, time.Now().UTC().Format(time.RFC3339Nano),
		res.Projection.Lambda, res.Projection.P, res.Projection.PLo, res.Projection.PHi,
		res.Projection.CIWidth, res.Projection.NHome, res.Projection.NAway,
		res.FairOdds, quotePrice, quoteSource, edgePct,
		signal, joinReasons(res.Signal.Reasons),
		string(res.Stake.Mode), res.Stake.Fraction, res.Stake.Amount,
	)
	if err != nil {
		return fmt.Errorf("insert result for fixture %d: %w", res.Fixture.ID, err)
	}

	s.resultCount++
	s.refreshSize()
	if s.cachedSize > maxStoreBytes {
		s.evict()
	}
	return nil
}

// LatestResultAt returns the scanned_at of the most recent result for a
// fixture, or the zero time when none exists.
func (s *Store) LatestResultAt(fixtureID int) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRow(
		`SELECT scanned_at FROM scan_results WHERE fixture_id = ? ORDER BY id DESC LIMIT 1`,
		fixtureID).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// refreshSize re-reads the database file size from SQLite pragmas.
// Must be called with s.mu held.
func (s *Store) refreshSize() {
	var size int64
	row := s.db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`)
	if err := row.Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the oldest 10% of result rows by count.
// Must be called with s.mu held.
func (s *Store) evict() {
	toDelete := int64(float64(s.resultCount) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}

	res, err := s.db.Exec(
		`DELETE FROM scan_results WHERE id IN (
			SELECT id FROM scan_results ORDER BY id ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("store evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.resultCount -= deleted
	s.evictCounter++

	telemetry.Infof("store: evicted %d result rows (target %d)", deleted, toDelete)

	if s.evictCounter%vacuumInterval == 0 {
		s.db.Exec(`PRAGMA incremental_vacuum`)
	}

	s.refreshSize()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scoreCol(sc *fixture.Score, home bool) any {
	if sc == nil {
		return nil
	}
	if home {
		return sc.Home
	}
	return sc.Away
}

func scoreFromCols(h, a sql.NullInt64) *fixture.Score {
	if !h.Valid || !a.Valid {
		return nil
	}
	return &fixture.Score{Home: int(h.Int64), Away: int(a.Int64)}
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, ",")
}
