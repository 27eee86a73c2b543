// Package history persists run summaries and unsubscribe attempts for
// operators. Recording is best-effort and never blocks triage.
package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// UnsubscribeRecord is one stored unsubscribe attempt
type UnsubscribeRecord struct {
	MessageID   string
	Method      string
	Success     bool
	ActionTaken string
	Message     string
	AttemptedAt time.Time
}

// MemoryStore is an in-memory implementation of the HistoryStore interface
type MemoryStore struct {
	mu     sync.Mutex
	runs   []core.TriageSummary
	unsubs []UnsubscribeRecord
	logger *zap.Logger
}

// NewMemoryStore creates a new in-memory history store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{logger: logger}
}

// RecordRun persists the summary of a completed triage pass
func (s *MemoryStore) RecordRun(ctx context.Context, summary *core.TriageSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *summary)
	return nil
}

// RecordUnsubscribe persists one unsubscribe attempt outcome
func (s *MemoryStore) RecordUnsubscribe(ctx context.Context, messageID string, result *core.UnsubscribeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubs = append(s.unsubs, UnsubscribeRecord{
		MessageID:   messageID,
		Method:      string(result.MethodUsed),
		Success:     result.Success,
		ActionTaken: result.ActionTaken,
		Message:     result.Message,
		AttemptedAt: time.Now(),
	})
	return nil
}

// Runs returns the recorded run summaries
func (s *MemoryStore) Runs() []core.TriageSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TriageSummary(nil), s.runs...)
}

// Unsubscribes returns the recorded unsubscribe attempts
func (s *MemoryStore) Unsubscribes() []UnsubscribeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UnsubscribeRecord(nil), s.unsubs...)
}

// Close releases nothing for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

var _ core.HistoryStore = (*MemoryStore)(nil)
