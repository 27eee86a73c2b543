package unsubscribe

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// Handler wires the gate, extractor, and executor into the Unsubscriber
// surface the triage orchestrator consumes.
type Handler struct {
	gate   *Gate
	exec   *Executor
	dryRun bool
	logger *zap.Logger
}

// NewHandler creates a handler. When dryRun is set, no network action is
// ever taken.
func NewHandler(gate *Gate, exec *Executor, dryRun bool, logger *zap.Logger) *Handler {
	return &Handler{
		gate:   gate,
		exec:   exec,
		dryRun: dryRun,
		logger: logger,
	}
}

// ShouldAttempt applies the category/sender gate
func (h *Handler) ShouldAttempt(category, sender string) bool {
	return h.gate.ShouldAttempt(category, sender)
}

// Attempt extracts the best mechanism from the message and executes it
func (h *Handler) Attempt(ctx context.Context, messageID string, headers core.Headers, body string) *core.UnsubscribeResult {
	info := Extract(headers, body)
	if !info.HasUnsubscribe {
		h.logger.Debug("No unsubscribe mechanism found",
			zap.String("message_id", messageID))
	}
	return h.exec.Unsubscribe(ctx, info, messageID, h.dryRun)
}

var _ core.Unsubscriber = (*Handler)(nil)
