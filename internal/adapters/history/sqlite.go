package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// SQLiteStore is a SQLite implementation of the HistoryStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite history store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS triage_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP,
			fetched INTEGER,
			processed INTEGER,
			kept INTEGER,
			trashed INTEGER,
			skipped_already_labeled INTEGER,
			skipped_rate_limited INTEGER,
			errors INTEGER,
			unsubscribe_attempts INTEGER
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create triage_runs table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS unsubscribe_attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT,
			method TEXT,
			success BOOLEAN,
			action_taken TEXT,
			message TEXT,
			attempted_at TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create unsubscribe_attempts table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// RecordRun persists the summary of a completed triage pass
func (s *SQLiteStore) RecordRun(ctx context.Context, summary *core.TriageSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO triage_runs (
			started_at, finished_at, fetched, processed, kept, trashed,
			skipped_already_labeled, skipped_rate_limited, errors, unsubscribe_attempts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.StartedAt.Format(time.RFC3339),
		summary.FinishedAt.Format(time.RFC3339),
		summary.Fetched, summary.Processed, summary.Kept, summary.Trashed,
		summary.SkippedAlreadyLabeled, summary.SkippedRateLimited,
		summary.Errors, summary.UnsubscribeAttempts)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// RecordUnsubscribe persists one unsubscribe attempt outcome
func (s *SQLiteStore) RecordUnsubscribe(ctx context.Context, messageID string, result *core.UnsubscribeResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unsubscribe_attempts (
			message_id, method, success, action_taken, message, attempted_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		messageID, string(result.MethodUsed), result.Success,
		result.ActionTaken, result.Message, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert unsubscribe record: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ core.HistoryStore = (*SQLiteStore)(nil)
