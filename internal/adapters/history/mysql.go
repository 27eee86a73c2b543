package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// MySQLStore is a MySQL implementation of the HistoryStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL history store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS triage_runs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			started_at TIMESTAMP NULL,
			finished_at TIMESTAMP NULL,
			fetched INT,
			processed INT,
			kept INT,
			trashed INT,
			skipped_already_labeled INT,
			skipped_rate_limited INT,
			errors INT,
			unsubscribe_attempts INT
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create triage_runs table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS unsubscribe_attempts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			message_id VARCHAR(255),
			method VARCHAR(32),
			success BOOLEAN,
			action_taken VARCHAR(255),
			message TEXT,
			attempted_at TIMESTAMP NULL,
			INDEX idx_message_id (message_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create unsubscribe_attempts table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// RecordRun persists the summary of a completed triage pass
func (s *MySQLStore) RecordRun(ctx context.Context, summary *core.TriageSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO triage_runs (
			started_at, finished_at, fetched, processed, kept, trashed,
			skipped_already_labeled, skipped_rate_limited, errors, unsubscribe_attempts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.StartedAt, summary.FinishedAt,
		summary.Fetched, summary.Processed, summary.Kept, summary.Trashed,
		summary.SkippedAlreadyLabeled, summary.SkippedRateLimited,
		summary.Errors, summary.UnsubscribeAttempts)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// RecordUnsubscribe persists one unsubscribe attempt outcome
func (s *MySQLStore) RecordUnsubscribe(ctx context.Context, messageID string, result *core.UnsubscribeResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unsubscribe_attempts (
			message_id, method, success, action_taken, message, attempted_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		messageID, string(result.MethodUsed), result.Success,
		result.ActionTaken, result.Message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert unsubscribe record: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

var _ core.HistoryStore = (*MySQLStore)(nil)
