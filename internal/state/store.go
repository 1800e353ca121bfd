// Package state persists generation run history in SQLite. History is
// observability for the `history` command and watch mode; losing it never
// invalidates generated pages.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/metrics"
	"github.com/secondlife/create/internal/pages"
)

// Store records generation runs and their per-page outcomes.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the state database. Use ":memory:" for an in-memory
// database, or a file path for persistent storage. Parent directories are
// created as needed; the default path lives under a dot-directory that does
// not exist on a fresh checkout.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, pipeerr.Wrap(err, pipeerr.CategoryState, pipeerr.SeverityWarning, "create state directory").
				WithContext("path", filepath.Dir(dbPath))
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryState, pipeerr.SeverityWarning, "open state database")
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, pipeerr.Wrap(err, pipeerr.CategoryState, pipeerr.SeverityWarning, "initialize state schema")
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		written INTEGER NOT NULL,
		unchanged INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS page_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		entry TEXT NOT NULL,
		kind TEXT NOT NULL,
		variant TEXT NOT NULL,
		path TEXT NOT NULL,
		action TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_page_outcomes_run ON page_outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores one generation report: a run row plus one row per page.
func (s *Store) RecordRun(ctx context.Context, report *pages.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var written, unchanged int
	for _, p := range report.Pages {
		switch p.Action {
		case metrics.ActionWritten:
			written++
		case metrics.ActionUnchanged:
			unchanged++
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started, finished, written, unchanged, failed) VALUES (?, ?, ?, ?, ?, ?)",
		report.RunID, report.Started.Unix(), report.Finished.Unix(), written, unchanged, report.Failed(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range report.Pages {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO page_outcomes (run_id, entry, kind, variant, path, action, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
			report.RunID, p.Name, string(p.Kind), string(p.Variant), p.Path, string(p.Action), p.Err,
		)
		if err != nil {
			return fmt.Errorf("insert page outcome: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of generation history.
type RunSummary struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Written   int
	Unchanged int
	Failed    int
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started, finished, written, unchanged, failed FROM runs ORDER BY started DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Written, &r.Unchanged, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Started = time.Unix(started, 0)
		r.Finished = time.Unix(finished, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FailedPages returns the failed page outcomes for a run.
func (s *Store) FailedPages(ctx context.Context, runID string) ([]pages.PageResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT entry, kind, variant, path, error FROM page_outcomes WHERE run_id = ? AND action = ? ORDER BY id",
		runID, string(metrics.ActionFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("query page outcomes: %w", err)
	}
	defer rows.Close()

	var out []pages.PageResult
	for rows.Next() {
		var p pages.PageResult
		var kind, variant string
		if err := rows.Scan(&p.Name, &kind, &variant, &p.Path, &p.Err); err != nil {
			return nil, fmt.Errorf("scan page outcome: %w", err)
		}
		p.Kind = pages.Kind(kind)
		p.Variant = pages.Variant(variant)
		p.Action = metrics.ActionFailed
		out = append(out, p)
	}
	return out, rows.Err()
}
