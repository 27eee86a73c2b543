package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/prompts"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// Classifier is an implementation of the Classifier interface using Amazon
// Bedrock
type Classifier struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	categories    []string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifier creates a new Bedrock classifier
func NewClassifier(cfg config.BedrockConfig, categories []string, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Classifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Classifier{
		client:        bedrockruntime.NewFromConfig(awsCfg),
		modelID:       cfg.ModelID,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		maxBodySize:   cfg.MaxBodySize,
		categories:    categories,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *Classifier) isAnthropicModel() bool {
	return strings.Contains(c.modelID, "anthropic")
}

// generate invokes the model with one prompt and returns the trimmed
// response text
func (c *Classifier) generate(ctx context.Context, system, user string) (string, error) {
	prompt := system + "\n\n" + user

	var payload []byte
	var err error
	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", c.classifyError(err)
	}

	var responseText string
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		responseText = claudeResp.Completion
	} else {
		var genericResp struct {
			Completion string `json:"completion"`
			Text       string `json:"text"`
		}
		if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal model response: %w", err)
		}
		responseText = genericResp.Completion
		if responseText == "" {
			responseText = genericResp.Text
		}
	}
	return strings.TrimSpace(responseText), nil
}

// classifyError maps provider rate limiting onto the typed throttle error
func (c *Classifier) classifyError(err error) error {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return core.NewThrottledError("bedrock", err)
	}
	return fmt.Errorf("failed to invoke Bedrock model: %w", err)
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
		ModelUsed:    c.modelID,
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
