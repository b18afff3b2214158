package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"camwatch/internal/modules/monitor/domain"
	apperrors "camwatch/internal/platform/errors"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) the camwatch database. One handle
// can back both the session store and the history store.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

type SQLiteSessionStore struct {
	db *sql.DB
}

func NewSQLiteSessionStore(ctx context.Context, db *sql.DB) (*SQLiteSessionStore, error) {
	store := &SQLiteSessionStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteSessionStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create session_kv table: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session key %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteSessionStore) Set(ctx context.Context, key, value string) error {
	const stmt = `
INSERT INTO session_kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value;
`
	if _, err := s.db.ExecContext(ctx, stmt, key, value); err != nil {
		return fmt.Errorf("set session key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteSessionStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove session key %s: %w", key, err)
	}
	return nil
}

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(ctx context.Context, db *sql.DB) (*SQLiteHistoryStore, error) {
	store := &SQLiteHistoryStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteHistoryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS job_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  job_id TEXT NOT NULL,
  outcome TEXT NOT NULL,
  completed INTEGER NOT NULL,
  failed INTEGER NOT NULL,
  total INTEGER NOT NULL,
  finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_job_history_finished ON job_history(finished_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create job_history table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	const stmt = `
INSERT INTO job_history (job_id, outcome, completed, failed, total, finished_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(ctx, stmt,
		entry.JobID,
		string(entry.Outcome),
		entry.Completed,
		entry.Failed,
		entry.Total,
		entry.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append job history: %w", err)
	}
	return nil
}

// List returns the most recent entries first.
func (s *SQLiteHistoryStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return nil, apperrors.ErrInvalidInput
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT job_id, outcome, completed, failed, total, finished_at
FROM job_history
ORDER BY finished_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list job history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e        domain.HistoryEntry
			outcome  string
			finished string
		)
		if err := rows.Scan(&e.JobID, &outcome, &e.Completed, &e.Failed, &e.Total, &finished); err != nil {
			return nil, fmt.Errorf("scan job history: %w", err)
		}
		e.Outcome = domain.Outcome(outcome)
		if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finished, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job history: %w", err)
	}
	return entries, nil
}
