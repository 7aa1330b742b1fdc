// Package ledger records per-item crawl outcomes in an embedded sqlite
// database. It is an optional sink: a nil *Ledger is valid and does nothing,
// so the engine never has to branch on configuration.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// Outcome labels how processing one work item ended.
const (
	OutcomeFetched = "fetched"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Ledger is a sqlite-backed log of crawl runs and their item outcomes.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database under dir.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	dbPath := filepath.Join(dir, "crawl.db")

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// sqlite supports a single writer; serialize access through one conn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger tables: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		fetched INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		item_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		attempts INTEGER DEFAULT 0,
		reason TEXT,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id);
	CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind, item_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// StartRun opens a new run row and returns its id.
func (l *Ledger) StartRun(ctx context.Context) (int64, error) {
	if l == nil {
		return 0, nil
	}
	res, err := l.db.ExecContext(ctx, "INSERT INTO runs DEFAULT VALUES")
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return res.LastInsertId()
}

// RecordItem logs the outcome of one work item within a run.
func (l *Ledger) RecordItem(ctx context.Context, runID int64, item types.WorkItem, outcome string, attempts int, reason string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO items (run_id, kind, item_id, outcome, attempts, reason) VALUES (?, ?, ?, ?, ?, ?)",
		runID, item.Kind.String(), item.ID, outcome, attempts, reason,
	)
	if err != nil {
		return fmt.Errorf("record item %s: %w", item, err)
	}
	return nil
}

// FinishRun stamps the run row with its final counters.
func (l *Ledger) FinishRun(ctx context.Context, runID int64, fetched, skipped, failed int) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = CURRENT_TIMESTAMP, fetched = ?, skipped = ?, failed = ? WHERE id = ?",
		fetched, skipped, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	return nil
}

// ItemOutcome returns the recorded outcome for one item in a run.
func (l *Ledger) ItemOutcome(ctx context.Context, runID int64, item types.WorkItem) (outcome string, attempts int, err error) {
	if l == nil {
		return "", 0, sql.ErrNoRows
	}
	row := l.db.QueryRowContext(ctx,
		"SELECT outcome, attempts FROM items WHERE run_id = ? AND kind = ? AND item_id = ? ORDER BY id DESC LIMIT 1",
		runID, item.Kind.String(), item.ID,
	)
	if err := row.Scan(&outcome, &attempts); err != nil {
		return "", 0, err
	}
	return outcome, attempts, nil
}

// RunCounts returns the persisted counters of a finished run.
func (l *Ledger) RunCounts(ctx context.Context, runID int64) (fetched, skipped, failed int, err error) {
	if l == nil {
		return 0, 0, 0, sql.ErrNoRows
	}
	row := l.db.QueryRowContext(ctx, "SELECT fetched, skipped, failed FROM runs WHERE id = ?", runID)
	if err := row.Scan(&fetched, &skipped, &failed); err != nil {
		return 0, 0, 0, err
	}
	return fetched, skipped, failed, nil
}
