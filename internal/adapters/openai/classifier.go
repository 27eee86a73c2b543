package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/prompts"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// Classifier is an implementation of the Classifier interface using OpenAI
type Classifier struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	categories    []string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifier creates a new OpenAI classifier
func NewClassifier(cfg config.OpenAIConfig, categories []string, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	return &Classifier{
		client:        openai.NewClient(cfg.APIKey),
		modelName:     cfg.ModelName,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		maxBodySize:   cfg.MaxBodySize,
		categories:    categories,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// complete sends one chat completion and returns the trimmed response text
func (c *Classifier) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	})
	if err != nil {
		return "", c.classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classifyError maps provider rate limiting onto the typed throttle error
// so the orchestrator never inspects error text
func (c *Classifier) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return core.NewThrottledError("openai", err)
	}
	return fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
}

// Classify assigns the content to one of the configured categories
func (c *Classifier) Classify(ctx context.Context, content string) (*core.Classification, error) {
	content = c.textProcessor.ProcessText(content, c.maxBodySize)
	category, err := c.complete(ctx, prompts.CategorizeSystem, prompts.Categorize(c.categories, content))
	if err != nil {
		return nil, err
	}
	return &core.Classification{
		Category:     category,
		ClassifiedAt: time.Now(),
		ModelUsed:    c.modelName,
	}, nil
}

// Summarize produces a 2-3 sentence summary of the content
func (c *Classifier) Summarize(ctx context.Context, content string) (string, error) {
	content = c.textProcessor.ProcessText(content, c.maxBodySize)
	return c.complete(ctx, prompts.SummarizeSystem, prompts.Summarize(content))
}

// ExtractActionItems lists tasks found in the content
func (c *Classifier) ExtractActionItems(ctx context.Context, content string) ([]string, error) {
	content = c.textProcessor.ProcessText(content, c.maxBodySize)
	response, err := c.complete(ctx, prompts.ActionItemsSystem, prompts.ActionItems(content))
	if err != nil {
		return nil, err
	}
	return prompts.ParseActionItems(response), nil
}

// ConfidenceScores rates each configured category in [0,1]
func (c *Classifier) ConfidenceScores(ctx context.Context, content string) (map[string]float64, error) {
	content = c.textProcessor.ProcessText(content, c.maxBodySize)
	response, err := c.complete(ctx, prompts.ConfidenceSystem, prompts.Confidence(c.categories, content))
	if err != nil {
		return nil, err
	}
	return prompts.ParseConfidence(response), nil
}

var _ core.Classifier = (*Classifier)(nil)
