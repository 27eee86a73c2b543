package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mikey/llm-mail-triage/internal/adapters/prompts"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// Classifier is an implementation of the Classifier interface using Google
// Gemini
type Classifier struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	categories    []string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifier creates a new Gemini classifier
func NewClassifier(cfg config.GeminiConfig, categories []string, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))

	return &Classifier{
		client:        client,
		model:         model,
		modelName:     cfg.ModelName,
		maxBodySize:   cfg.MaxBodySize,
		categories:    categories,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// generate sends one prompt and returns the trimmed response text. Gemini
// has no separate system role, so the system line leads the prompt.
func (c *Classifier) generate(ctx context.Context, system, user string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(system+"\n\n"+user))
	if err != nil {
		return "", c.classifyError(err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return strings.TrimSpace(responseText), nil
}

// classifyError maps provider rate limiting onto the typed throttle error
func (c *Classifier) classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return core.NewThrottledError("gemini", err)
	}
	return fmt.Errorf("failed to generate content with Gemini: %w", err)
}

// Classify assigns the content to one of the configured categories
func (c *Classifier) Classify(ctx context.Context, content string) (*core.Classification, error) {
	content = c.textProcessor.ProcessText(content, c.maxBodySize)
	category, err := c.generate(ctx, prompts.CategorizeSystem, prompts.Categorize(c.categories, content))
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
	return c.generate(ctx, prompts.SummarizeSystem, prompts.Summarize(content))
}

// ExtractActionItems lists tasks found in the content
func (c *Classifier) ExtractActionItems(ctx context.Context, content string) ([]string, error) {
	content = c.textProcessor.ProcessText(content, c.maxBodySize)
	response, err := c.generate(ctx, prompts.ActionItemsSystem, prompts.ActionItems(content))
	if err != nil {
		return nil, err
	}
	return prompts.ParseActionItems(response), nil
}

// ConfidenceScores rates each configured category in [0,1]
func (c *Classifier) ConfidenceScores(ctx context.Context, content string) (map[string]float64, error) {
	content = c.textProcessor.ProcessText(content, c.maxBodySize)
	response, err := c.generate(ctx, prompts.ConfidenceSystem, prompts.Confidence(c.categories, content))
	if err != nil {
		return nil, err
	}
	return prompts.ParseConfidence(response), nil
}

var _ core.Classifier = (*Classifier)(nil)
