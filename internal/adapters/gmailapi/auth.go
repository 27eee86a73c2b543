package gmailapi

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mikey/llm-mail-triage/internal/config"
)

// scopes required by the triage loop: read, modify, and label management.
var scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailLabelsScope,
}

// NewService builds an authenticated Gmail service from inline credentials
// JSON or a credentials file, whichever the configuration provides
func NewService(ctx context.Context, cfg config.GmailConfig) (*gmail.Service, error) {
	opts := []option.ClientOption{option.WithScopes(scopes...)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, errors.New("no Gmail credentials configured: set gmail.credentials_json or gmail.credentials_file")
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}
