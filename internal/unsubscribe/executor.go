package unsubscribe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/rate"
)

const userAgent = "Mozilla/5.0 (llm-mail-triage/1.0)"

// successStatuses are the HTTP statuses accepted as a completed
// unsubscribe.
var successStatuses = map[int]bool{
	http.StatusOK:        true,
	http.StatusCreated:   true,
	http.StatusAccepted:  true,
	http.StatusNoContent: true,
}

// Executor performs the method-appropriate unsubscribe action for one
// message. Outbound HTTP requests share a single pacing gate, independent
// of the orchestrator's own pacing.
type Executor struct {
	httpClient *http.Client
	limiter    rate.Limiter
	logger     *zap.Logger
}

// NewExecutor creates an executor. timeout bounds each HTTP request;
// minRequestInterval spaces consecutive outbound requests.
func NewExecutor(timeout, minRequestInterval time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		// TLS verification stays enabled; certificate failures are
		// surfaced as a distinct result message.
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewIntervalLimiter(minRequestInterval),
		logger:     logger,
	}
}

// Unsubscribe acts on a validated UnsubscribeInfo. The URL is re-validated
// here even when the caller already screened it; an unsafe URL never
// produces a network call. In dry-run mode no network call is made for any
// method and the result reports what would have been done.
func (e *Executor) Unsubscribe(ctx context.Context, info core.UnsubscribeInfo, messageID string, dryRun bool) *core.UnsubscribeResult {
	result := &core.UnsubscribeResult{
		MethodUsed:  info.Method,
		ActionTaken: "none",
	}

	if !info.HasUnsubscribe {
		result.Message = "No unsubscribe method found"
		return result
	}

	if info.URL != "" && !IsSafeURL(info.URL) {
		result.Message = "URL failed safety validation (possible phishing)"
		e.logger.Warn("Suspicious unsubscribe URL rejected",
			zap.String("message_id", messageID),
			zap.String("url", info.URL))
		return result
	}

	if dryRun {
		result.Success = true
		result.ActionTaken = fmt.Sprintf("dry-run: would unsubscribe via %s", info.Method)
		result.Message = fmt.Sprintf("DRY RUN: Would unsubscribe using %s method to %s", info.Method, info.URL)
		return result
	}

	switch info.Method {
	case core.MethodOneClick:
		return e.requestUnsubscribe(ctx, http.MethodPost, info, messageID)
	case core.MethodHTTP:
		return e.requestUnsubscribe(ctx, http.MethodGet, info, messageID)
	case core.MethodMailto:
		result.ActionTaken = "manual-required"
		result.Message = fmt.Sprintf("Manual action required: Send email to %s", info.URL)
		e.logger.Info("Manual unsubscribe needed",
			zap.String("message_id", messageID), zap.String("target", info.URL))
		return result
	case core.MethodWeb:
		result.ActionTaken = "manual-required"
		result.Message = fmt.Sprintf("Manual action required: Visit %s", info.URL)
		e.logger.Info("Manual unsubscribe needed",
			zap.String("message_id", messageID), zap.String("target", info.URL))
		return result
	default:
		result.Message = fmt.Sprintf("Unsupported unsubscribe method: %s", info.Method)
		return result
	}
}

// requestUnsubscribe issues the automated HTTP action: a POST carrying the
// RFC 8058 one-click header, or a plain GET.
func (e *Executor) requestUnsubscribe(ctx context.Context, method string, info core.UnsubscribeInfo, messageID string) *core.UnsubscribeResult {
	result := &core.UnsubscribeResult{
		MethodUsed:  info.Method,
		ActionTaken: "failed",
	}

	e.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, method, info.URL, nil)
	if err != nil {
		result.Message = fmt.Sprintf("Invalid unsubscribe URL: %v", err)
		return result
	}
	req.Header.Set("User-Agent", userAgent)
	if method == http.MethodPost {
		req.Header.Set("List-Unsubscribe", "One-Click")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		result.Message = classifyRequestError(err)
		e.logger.Warn("Unsubscribe request failed",
			zap.String("message_id", messageID),
			zap.String("url", info.URL),
			zap.Error(err))
		return result
	}
	defer resp.Body.Close()

	if successStatuses[resp.StatusCode] {
		result.Success = true
		result.ActionTaken = "automated-unsubscribe"
		result.Message = fmt.Sprintf("Successfully unsubscribed via %s (status: %d)", info.Method, resp.StatusCode)
		return result
	}

	result.Message = fmt.Sprintf("Unsubscribe failed with status code: %d", resp.StatusCode)
	return result
}

// classifyRequestError distinguishes timeouts and TLS verification
// failures from other transport errors.
func classifyRequestError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Request timeout"
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return "TLS certificate verification failed"
	}
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &authErr) || errors.As(err, &hostErr) || strings.Contains(err.Error(), "x509:") {
		return "TLS certificate verification failed"
	}
	return fmt.Sprintf("Request failed: %v", err)
}
