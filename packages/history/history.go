// Package history records check runs in a local SQLite database so past
// smoke-test outcomes and latencies can be inspected later.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/perly6185-lab/imgprobe/packages/checks"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  INTEGER NOT NULL,
	base_url    TEXT NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	name        TEXT NOT NULL,
	passed      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_name ON results(name);
`

// Store is a run-history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Run is one recorded invocation of the check suite.
type Run struct {
	ID         int64
	StartedAt  time.Time
	BaseURL    string
	Passed     int
	Failed     int
	DurationMs int64
}

// RecordRun stores a summary and its per-check results. Only names,
// outcomes, and durations are persisted; request and response payloads
// never are.
func (s *Store) RecordRun(summary *checks.Summary, baseURL string, startedAt time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO runs (started_at, base_url, passed, failed, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		startedAt.Unix(), baseURL, summary.Passed, summary.Failed, summary.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, r := range summary.Results {
		if _, err := tx.Exec(
			`INSERT INTO results (run_id, name, passed, duration_ms) VALUES (?, ?, ?, ?)`,
			runID, r.Name, r.Passed, r.Duration.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("inserting result %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, started_at, base_url, passed, failed, duration_ms FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var startedAt int64
		if err := rows.Scan(&run.ID, &startedAt, &run.BaseURL, &run.Passed, &run.Failed, &run.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CheckStats summarizes recorded latencies for one named check.
type CheckStats struct {
	Name  string
	Count int64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

const (
	histogramMinMs = 1
	histogramMaxMs = 3_600_000 // one hour, far beyond any sane check
)

// Stats aggregates per-check durations across all recorded runs into
// latency percentiles.
func (s *Store) Stats() ([]*CheckStats, error) {
	rows, err := s.db.Query(`SELECT name, duration_ms FROM results ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	histograms := make(map[string]*hdrhistogram.Histogram)
	var order []string

	for rows.Next() {
		var name string
		var durationMs int64
		if err := rows.Scan(&name, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		h, ok := histograms[name]
		if !ok {
			h = hdrhistogram.New(histogramMinMs, histogramMaxMs, 3)
			histograms[name] = h
			order = append(order, name)
		}
		if durationMs < histogramMinMs {
			durationMs = histogramMinMs
		}
		if err := h.RecordValue(durationMs); err != nil {
			return nil, fmt.Errorf("recording duration for %q: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]*CheckStats, 0, len(order))
	for _, name := range order {
		h := histograms[name]
		stats = append(stats, &CheckStats{
			Name:  name,
			Count: h.TotalCount(),
			P50:   time.Duration(h.ValueAtQuantile(50)) * time.Millisecond,
			P95:   time.Duration(h.ValueAtQuantile(95)) * time.Millisecond,
			P99:   time.Duration(h.ValueAtQuantile(99)) * time.Millisecond,
		})
	}
	return stats, nil
}
