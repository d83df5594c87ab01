// Package history records refresh and sync runs in a local sqlite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no run matches.
var ErrNotFound = errors.New("run not found")

// Kind of recorded run.
const (
	KindRefresh = "refresh"
	KindSync    = "sync"
	KindClean   = "clean"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string    `db:"id" json:"id"`
	Kind       string    `db:"kind" json:"kind"`
	StartedAt  time.Time `db:"started_at" json:"startedAt"`
	FinishedAt time.Time `db:"finished_at" json:"finishedAt"`
	Total      int       `db:"total" json:"total"`
	Success    int       `db:"success" json:"success"`
	Failed     int       `db:"failed" json:"failed"`
	Skipped    int       `db:"skipped" json:"skipped"`
	Removed    int       `db:"removed" json:"removed"`
	Error      string    `db:"error" json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the per-account line of a run. Email holds the pool id for
// pool-side deletions.
type Outcome struct {
	ID      int64  `db:"id" json:"-"`
	RunID   string `db:"run_id" json:"runId"`
	Action  string `db:"action" json:"action"`
	Email   string `db:"email" json:"email"`
	Success bool   `db:"success" json:"success"`
	Error   string `db:"error" json:"error,omitempty"`
}

// NewRun starts a run record with a fresh id.
func NewRun(kind string, started time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: started.UTC(),
	}
}

// DB wraps sqlx.DB
type DB struct {
	*sqlx.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{db}, nil
}

// Migrate creates the schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM pragma_table_info('outcomes') WHERE name = 'action'`); err != nil {
		return fmt.Errorf("failed to inspect outcomes: %w", err)
	}
	if n == 0 {
		if _, err := db.ExecContext(ctx, `ALTER TABLE outcomes ADD COLUMN action TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("failed to add outcomes.action: %w", err)
		}
	}
	return nil
}

// Record stores a finished run and its outcomes in one transaction.
func (db *DB) Record(ctx context.Context, run *Run, outcomes []Outcome) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, kind, started_at, finished_at, total, success, failed, skipped, removed, error)
		VALUES (:id, :kind, :started_at, :finished_at, :total, :success, :failed, :skipped, :removed, :error)
	`, run)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range outcomes {
		outcomes[i].RunID = run.ID
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO outcomes (run_id, action, email, success, error)
			VALUES (:run_id, :action, :email, :success, :error)
		`, outcomes[i])
		if err != nil {
			return fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Recent returns the newest runs first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := db.SelectContext(ctx, &runs, `SELECT * FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get finds a run by id or unique id prefix. The prefix is compared
// literally.
func (db *DB) Get(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var runs []Run
	err := db.SelectContext(ctx, &runs, `SELECT * FROM runs WHERE substr(id, 1, length(?)) = ? LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	switch len(runs) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// Outcomes returns the per-account lines of a run in insertion order.
func (db *DB) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	var out []Outcome
	err := db.SelectContext(ctx, &out, `SELECT * FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	return out, nil
}
