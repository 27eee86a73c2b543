// Package gmailapi adapts the Gmail API to the Mailbox port.
package gmailapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// listPageSize caps each messages.list page; the orchestrator never sees
// pagination.
const listPageSize = 500

// systemLabelMap maps well-known category names to Gmail's fixed system
// label IDs so EnsureLabel never tries to create them.
var systemLabelMap = map[string]string{
	"spam":      "SPAM",
	"trash":     "TRASH",
	"inbox":     "INBOX",
	"sent":      "SENT",
	"draft":     "DRAFT",
	"drafts":    "DRAFT",
	"important": "IMPORTANT",
	"starred":   "STARRED",
	"unread":    "UNREAD",
}

// Client implements the Mailbox port over a Gmail service
type Client struct {
	svc    *gmail.Service
	logger *zap.Logger
}

// NewClient wraps an authenticated Gmail service
func NewClient(svc *gmail.Service, logger *zap.Logger) *Client {
	return &Client{svc: svc, logger: logger}
}

// classifyError maps Gmail quota errors onto the typed throttle error.
// Gmail signals rate limiting both as plain 429 and as 403 with a
// rate-limit reason.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return core.NewThrottledError("gmail", err)
		}
		if apiErr.Code == http.StatusForbidden {
			for _, e := range apiErr.Errors {
				if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
					return core.NewThrottledError("gmail", err)
				}
			}
		}
	}
	return err
}

// ListMessageIDs returns message IDs matching the query in listing order,
// paginating internally. maxResults <= 0 fetches everything.
func (c *Client) ListMessageIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		pageSize := int64(listPageSize)
		if maxResults > 0 {
			remaining := maxResults - len(ids)
			if remaining <= 0 {
				break
			}
			if remaining < listPageSize {
				pageSize = int64(remaining)
			}
		}
		call := c.svc.Users.Messages.List("me").Q(query).MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return nil, classifyError(err)
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		if res.NextPageToken == "" || len(res.Messages) == 0 {
			break
		}
		pageToken = res.NextPageToken
	}
	return ids, nil
}

// GetSubject fetches just the subject line via a metadata-only call
func (c *Client) GetSubject(ctx context.Context, id string) (string, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).
		Format("metadata").MetadataHeaders("Subject").Context(ctx).Do()
	if err != nil {
		return "", classifyError(err)
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, "Subject") {
			return h.Value, nil
		}
	}
	return "(No Subject)", nil
}

// GetMessage fetches the full message and extracts sender, subject, and
// the first text/plain body part
func (c *Client) GetMessage(ctx context.Context, id string) (*core.Email, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}
	email := &core.Email{ID: id}
	for _, h := range msg.Payload.Headers {
		switch {
		case strings.EqualFold(h.Name, "Subject"):
			email.Subject = h.Value
		case strings.EqualFold(h.Name, "From"):
			email.From = h.Value
		}
	}
	email.Body = extractBody(msg.Payload)
	return email, nil
}

// GetHeaders fetches the full header set for unsubscribe detection
func (c *Client) GetHeaders(ctx context.Context, id string) (core.Headers, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).Format("metadata").Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}
	headers := make(core.Headers)
	for _, h := range msg.Payload.Headers {
		headers.Add(h.Name, h.Value)
	}
	return headers, nil
}

// GetLabelIDs returns the label IDs currently on the message
func (c *Client) GetLabelIDs(ctx context.Context, id string) ([]string, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).Format("minimal").Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}
	return msg.LabelIds, nil
}

// ListLabels returns all mailbox labels as id -> name
func (c *Client) ListLabels(ctx context.Context) (map[string]string, error) {
	res, err := c.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}
	labels := make(map[string]string, len(res.Labels))
	for _, l := range res.Labels {
		labels[l.Id] = l.Name
	}
	return labels, nil
}

// EnsureLabel returns the ID of the named label, mapping system category
// names to fixed IDs, reusing an existing label case-insensitively, and
// creating a new one otherwise
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	if id, ok := systemLabelMap[strings.ToLower(name)]; ok {
		return id, nil
	}

	labels, err := c.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	for id, existing := range labels {
		if strings.EqualFold(existing, name) {
			return id, nil
		}
	}

	created, err := c.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", classifyError(fmt.Errorf("create label %q: %w", name, err))
	}
	c.logger.Info("Created label", zap.String("name", name), zap.String("id", created.Id))
	return created.Id, nil
}

// AddLabel applies a label to a message
func (c *Client) AddLabel(ctx context.Context, id, labelID string) error {
	return c.modify(ctx, id, []string{labelID}, nil)
}

// Archive removes the message from the inbox
func (c *Client) Archive(ctx context.Context, id string) error {
	return c.modify(ctx, id, nil, []string{"INBOX"})
}

// Trash moves the message to trash
func (c *Client) Trash(ctx context.Context, id string) error {
	_, err := c.svc.Users.Messages.Trash("me", id).Context(ctx).Do()
	return classifyError(err)
}

func (c *Client) modify(ctx context.Context, id string, add, remove []string) error {
	_, err := c.svc.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	return classifyError(err)
}

// extractBody walks the payload tree for the first text/plain part,
// falling back to the top-level body
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
			if len(part.Parts) > 0 {
				if body := extractBody(part); body != "" {
					return body
				}
			}
		}
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	return ""
}

// decodeBody decodes Gmail's base64url body data, tolerating both padded
// and unpadded forms
func decodeBody(data string) string {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

var _ core.Mailbox = (*Client)(nil)
