package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Retry policy for throttled classifications. The budget is fixed: messages
// still throttled after the last round are left for the next run, which
// re-derives pending work from mailbox label state.
const (
	maxRetryRounds       = 3
	retryDelayMultiplier = 3
	subjectDisplayLimit  = 60
)

// Unsubscriber attempts an unsubscribe for a message the gate selects.
// A nil result means no attempt was made.
type Unsubscriber interface {
	ShouldAttempt(category, sender string) bool
	Attempt(ctx context.Context, messageID string, headers Headers, body string) *UnsubscribeResult
}

// TriageConfig holds the orchestrator's processing parameters
type TriageConfig struct {
	Query          string
	MaxEmails      int
	RateLimitDelay time.Duration
	KeepCategories []string
}

// TriageService drives one sequential pass over the inbox: classify each
// message at most once, act on the retention decision, and recover
// throttled messages with bounded exponential backoff.
type TriageService struct {
	mailbox    Mailbox
	classifier Classifier
	unsub      Unsubscriber
	history    HistoryStore
	logger     *zap.Logger
	cfg        TriageConfig
	keepSet    map[string]struct{}

	// sleep is swappable so tests can observe pacing without waiting
	sleep func(time.Duration)
}

// NewTriageService creates a new triage service. unsub and history may be
// nil to disable the unsubscribe path and run recording.
func NewTriageService(
	mailbox Mailbox,
	classifier Classifier,
	unsub Unsubscriber,
	history HistoryStore,
	logger *zap.Logger,
	cfg TriageConfig,
) *TriageService {
	return &TriageService{
		mailbox:    mailbox,
		classifier: classifier,
		unsub:      unsub,
		history:    history,
		logger:     logger,
		cfg:        cfg,
		keepSet:    KeepSet(cfg.KeepCategories),
		sleep:      time.Sleep,
	}
}

// ProcessInbox runs one full triage pass and returns its summary. Errors
// from individual messages never abort the pass; only listing failures and
// label discovery failures are fatal.
func (s *TriageService) ProcessInbox(ctx context.Context) (*TriageSummary, error) {
	summary := NewTriageSummary()

	ids, err := s.mailbox.ListMessageIDs(ctx, s.cfg.Query, s.cfg.MaxEmails)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	summary.Fetched = len(ids)
	s.logger.Info("Fetched inbox messages",
		zap.Int("count", len(ids)),
		zap.String("query", s.cfg.Query))

	categoryLabelIDs, err := s.categoryLabelIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover category labels: %w", err)
	}
	s.logger.Info("Skipping messages already labeled",
		zap.Strings("labels", labelNames(categoryLabelIDs)))

	var retryQueue []RetryEntry
	for idx, id := range ids {
		skipped, err := s.processMessage(ctx, id, categoryLabelIDs, summary)
		if err != nil {
			if IsThrottled(err) {
				s.logger.Warn("Rate limit hit, will retry later", zap.String("message_id", id))
				retryQueue = append(retryQueue, RetryEntry{MessageID: id})
			} else {
				s.logger.Error("Failed to process message",
					zap.String("message_id", id), zap.Error(err))
				summary.Errors++
			}
			continue
		}
		if skipped {
			continue
		}
		// Pace classifier calls, except after the last message
		if idx < len(ids)-1 && s.cfg.RateLimitDelay > 0 {
			s.sleep(s.cfg.RateLimitDelay)
		}
	}

	if len(retryQueue) > 0 {
		retryQueue = s.retryThrottled(ctx, retryQueue, categoryLabelIDs, summary)
		summary.SkippedRateLimited = len(retryQueue)
		if summary.SkippedRateLimited > 0 {
			s.logger.Warn("Messages left for the next run after retries",
				zap.Int("count", summary.SkippedRateLimited))
		}
	}

	summary.FinishedAt = time.Now()
	if s.history != nil {
		if err := s.history.RecordRun(ctx, summary); err != nil {
			s.logger.Error("Failed to record run history", zap.Error(err))
		}
	}
	return summary, nil
}

// retryThrottled runs up to maxRetryRounds over the queued messages,
// doubling the delay between rounds. Returns whatever is still throttled.
func (s *TriageService) retryThrottled(
	ctx context.Context,
	queue []RetryEntry,
	categoryLabelIDs map[string]string,
	summary *TriageSummary,
) []RetryEntry {
	retryDelay := s.cfg.RateLimitDelay * retryDelayMultiplier

	for attempt := 1; attempt <= maxRetryRounds && len(queue) > 0; attempt++ {
		s.logger.Info("Retrying rate-limited messages",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetryRounds),
			zap.Int("count", len(queue)),
			zap.Duration("delay", retryDelay))
		s.sleep(retryDelay)

		var remaining []RetryEntry
		for i, entry := range queue {
			// Re-check idempotency inside processMessage: a parallel run
			// may have labeled the message meanwhile.
			_, err := s.processMessage(ctx, entry.MessageID, categoryLabelIDs, summary)
			if err != nil {
				if IsThrottled(err) {
					s.logger.Warn("Rate limit hit again",
						zap.String("message_id", entry.MessageID))
					remaining = append(remaining, entry)
				} else {
					s.logger.Error("Failed to process message on retry",
						zap.String("message_id", entry.MessageID), zap.Error(err))
					summary.Errors++
				}
				continue
			}
			if i < len(queue)-1 {
				s.sleep(retryDelay)
			}
		}

		queue = remaining
		if len(queue) > 0 {
			retryDelay *= 2
		}
	}
	return queue
}

// processMessage triages a single message. The returned bool is true when
// the message was skipped by the idempotency check.
func (s *TriageService) processMessage(
	ctx context.Context,
	id string,
	categoryLabelIDs map[string]string,
	summary *TriageSummary,
) (bool, error) {
	labelIDs, err := s.mailbox.GetLabelIDs(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get labels: %w", err)
	}
	for _, lid := range labelIDs {
		if _, ok := categoryLabelIDs[lid]; ok {
			summary.SkippedAlreadyLabeled++
			return true, nil
		}
	}

	subject, err := s.mailbox.GetSubject(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get subject: %w", err)
	}

	email, err := s.mailbox.GetMessage(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get message: %w", err)
	}
	content := email.Content()

	classification, err := s.classifier.Classify(ctx, content)
	if err != nil {
		return false, err
	}
	category := classification.Category
	summary.CategoryCounts[category]++

	s.logger.Info("Classified message",
		zap.String("subject", displaySubject(subject)),
		zap.String("category", category))

	if s.unsub != nil && s.unsub.ShouldAttempt(category, email.From) {
		s.attemptUnsubscribe(ctx, id, email, summary)
	}

	switch Decide(category, s.keepSet) {
	case ActionKeep:
		if err := s.keepMessage(ctx, id, category, content); err != nil {
			return false, err
		}
		summary.Kept++
		s.logger.Info("Labeled and archived", zap.String("label", category))
	case ActionTrash:
		if err := s.mailbox.Trash(ctx, id); err != nil {
			return false, fmt.Errorf("failed to trash message: %w", err)
		}
		summary.Trashed++
		s.logger.Info("Moved to trash", zap.String("category", category))
	}

	summary.Processed++
	return false, nil
}

// keepMessage enriches a retained message and files it under its category
// label. Summary and action items are only requested on the keep path.
func (s *TriageService) keepMessage(ctx context.Context, id, category, content string) error {
	msgSummary, err := s.classifier.Summarize(ctx, content)
	if err != nil {
		return err
	}
	actionItems, err := s.classifier.ExtractActionItems(ctx, content)
	if err != nil {
		return err
	}
	s.logger.Debug("Enriched kept message",
		zap.String("summary", msgSummary),
		zap.Int("action_items", len(actionItems)))

	labelID, err := s.mailbox.EnsureLabel(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to ensure label: %w", err)
	}
	if err := s.mailbox.AddLabel(ctx, id, labelID); err != nil {
		return fmt.Errorf("failed to apply label: %w", err)
	}
	if err := s.mailbox.Archive(ctx, id); err != nil {
		return fmt.Errorf("failed to archive message: %w", err)
	}
	return nil
}

// attemptUnsubscribe runs the unsubscribe subsystem for one message.
// Failures here are per-message results and never abort triage.
func (s *TriageService) attemptUnsubscribe(ctx context.Context, id string, email *Email, summary *TriageSummary) {
	headers, err := s.mailbox.GetHeaders(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to fetch headers for unsubscribe",
			zap.String("message_id", id), zap.Error(err))
		return
	}
	result := s.unsub.Attempt(ctx, id, headers, email.Body)
	if result == nil {
		return
	}
	summary.UnsubscribeAttempts++
	s.logger.Info("Unsubscribe attempt",
		zap.String("message_id", id),
		zap.String("method", string(result.MethodUsed)),
		zap.Bool("success", result.Success),
		zap.String("action", result.ActionTaken))
	if s.history != nil {
		if err := s.history.RecordUnsubscribe(ctx, id, result); err != nil {
			s.logger.Error("Failed to record unsubscribe history", zap.Error(err))
		}
	}
}

// categoryLabelIDs maps existing label IDs to their names for every label
// whose name matches a keep category. The match is case-insensitive so a
// differently-cased duplicate of a category label still counts as triaged.
func (s *TriageService) categoryLabelIDs(ctx context.Context) (map[string]string, error) {
	labels, err := s.mailbox.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	lowered := make(map[string]struct{}, len(s.keepSet))
	for c := range s.keepSet {
		lowered[strings.ToLower(c)] = struct{}{}
	}
	out := make(map[string]string)
	for id, name := range labels {
		if _, ok := s.keepSet[name]; ok {
			out[id] = name
			continue
		}
		if _, ok := lowered[strings.ToLower(name)]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func labelNames(categoryLabelIDs map[string]string) []string {
	names := make([]string, 0, len(categoryLabelIDs))
	for _, name := range categoryLabelIDs {
		names = append(names, name)
	}
	return names
}

func displaySubject(subject string) string {
	if len(subject) > subjectDisplayLimit {
		return subject[:subjectDisplayLimit] + "..."
	}
	return subject
}
