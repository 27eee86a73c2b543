package config

import (
	"errors"
	"fmt"
	"time"
)

// TriageConfig represents the configuration for the triage loop
type TriageConfig struct {
	Query          string
	MaxEmails      int
	RateLimitDelay time.Duration
	KeepCategories []string
}

// Validate checks the triage section
func (t TriageConfig) Validate() error {
	if t.MaxEmails < 0 {
		return fmt.Errorf("max_emails must be >= 0, got %d", t.MaxEmails)
	}
	if t.RateLimitDelay < 0 {
		return errors.New("rate_limit_delay must not be negative")
	}
	if len(t.KeepCategories) == 0 {
		return errors.New("keep_categories must not be empty")
	}
	return nil
}

// UnsubscribeConfig represents the configuration for the unsubscribe
// subsystem
type UnsubscribeConfig struct {
	Enabled            bool
	Categories         []string
	SenderPatterns     []string
	DryRun             bool
	Timeout            time.Duration
	MinRequestInterval time.Duration
}

// Validate checks the unsubscribe section
func (u UnsubscribeConfig) Validate() error {
	if u.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if u.MinRequestInterval < 0 {
		return errors.New("min_request_interval must not be negative")
	}
	if u.Enabled && len(u.Categories) == 0 {
		return errors.New("categories must not be empty when unsubscribe is enabled")
	}
	return nil
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider   string
	Categories []string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GmailConfig represents the configuration for the Gmail mailbox adapter
type GmailConfig struct {
	CredentialsJSON string
	CredentialsFile string
}

// HistoryConfig represents the configuration for the run history store
type HistoryConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// Validate checks the history section
func (h HistoryConfig) Validate() error {
	switch h.Type {
	case "none", "memory", "sqlite", "mysql":
		return nil
	default:
		return fmt.Errorf("unsupported history type %q", h.Type)
	}
}

// GetTriage returns the triage configuration
func (c *Config) GetTriage() TriageConfig {
	return TriageConfig{
		Query:          c.GetString("triage.query"),
		MaxEmails:      c.GetInt("triage.max_emails"),
		RateLimitDelay: c.GetSeconds("triage.rate_limit_delay"),
		KeepCategories: c.GetStringSlice("triage.keep_categories"),
	}
}

// GetUnsubscribe returns the unsubscribe configuration
func (c *Config) GetUnsubscribe() UnsubscribeConfig {
	return UnsubscribeConfig{
		Enabled:            c.GetBool("unsubscribe.enabled"),
		Categories:         c.GetStringSlice("unsubscribe.categories"),
		SenderPatterns:     c.GetStringSlice("unsubscribe.sender_patterns"),
		DryRun:             c.GetBool("unsubscribe.dry_run"),
		Timeout:            c.GetSeconds("unsubscribe.timeout"),
		MinRequestInterval: c.GetSeconds("unsubscribe.min_request_interval"),
	}
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:   c.GetString("llm.provider"),
		Categories: c.GetStringSlice("llm.categories"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGmail returns the Gmail adapter configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		CredentialsJSON: c.GetString("gmail.credentials_json"),
		CredentialsFile: c.GetString("gmail.credentials_file"),
	}
}

// GetHistory returns the history store configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Type:       c.GetString("history.type"),
		SQLitePath: c.GetString("history.sqlite_path"),
		MySQLDSN:   c.GetString("history.mysql_dsn"),
	}
}
