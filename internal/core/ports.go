package core

import (
	"context"
)

// Mailbox defines the narrow mailbox surface required by the triage loop.
// Implementations report provider rate limiting as a ThrottledError.
type Mailbox interface {
	// ListMessageIDs returns message IDs matching the query in mailbox
	// listing order. maxResults <= 0 means no cap.
	ListMessageIDs(ctx context.Context, query string, maxResults int) ([]string, error)

	// GetSubject fetches just the subject line (metadata-only, cheap)
	GetSubject(ctx context.Context, id string) (string, error)

	// GetMessage fetches the full message content for classification
	GetMessage(ctx context.Context, id string) (*Email, error)

	// GetHeaders fetches the full header set for unsubscribe detection
	GetHeaders(ctx context.Context, id string) (Headers, error)

	// GetLabelIDs returns the label IDs currently on the message
	GetLabelIDs(ctx context.Context, id string) ([]string, error)

	// ListLabels returns all mailbox labels as id -> name
	ListLabels(ctx context.Context) (map[string]string, error)

	// EnsureLabel returns the ID of the named label, creating it if
	// needed. Well-known system category names map to fixed system IDs.
	EnsureLabel(ctx context.Context, name string) (string, error)

	// AddLabel applies a label to a message
	AddLabel(ctx context.Context, id, labelID string) error

	// Archive removes the message from the inbox
	Archive(ctx context.Context, id string) error

	// Trash moves the message to trash
	Trash(ctx context.Context, id string) error
}

// Classifier defines the interface for the language-model collaborator.
// Implementations report provider rate limiting as a ThrottledError.
type Classifier interface {
	// Classify assigns the content to one of the configured categories
	Classify(ctx context.Context, content string) (*Classification, error)

	// Summarize produces a 2-3 sentence summary of the content
	Summarize(ctx context.Context, content string) (string, error)

	// ExtractActionItems lists tasks found in the content, possibly empty
	ExtractActionItems(ctx context.Context, content string) ([]string, error)

	// ConfidenceScores rates each configured category in [0,1]
	ConfidenceScores(ctx context.Context, content string) (map[string]float64, error)
}

// HistoryStore records run outcomes for operators. Recording is
// best-effort; callers log failures and continue.
type HistoryStore interface {
	// RecordRun persists the summary of a completed triage pass
	RecordRun(ctx context.Context, summary *TriageSummary) error

	// RecordUnsubscribe persists one unsubscribe attempt outcome
	RecordUnsubscribe(ctx context.Context, messageID string, result *UnsubscribeResult) error

	// Close releases any underlying resources
	Close() error
}
