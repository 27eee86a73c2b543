package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mail-triage/")
	v.AddConfigPath("$HOME/.mail-triage")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	cfg := &Config{v: v}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewFromViper creates a new configuration instance from an existing Viper
// instance, validating it first
func NewFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{v: v}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Triage defaults
	v.SetDefault("triage.query", "in:inbox")
	v.SetDefault("triage.max_emails", 0)
	v.SetDefault("triage.rate_limit_delay", 2.0)
	v.SetDefault("triage.keep_categories", []string{"Work", "Personal", "Finance", "Travel", "Notes"})

	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.categories", []string{
		"Work", "Personal", "Finance", "Travel", "Notes",
		"Github", "Spam", "Promotions", "Newsletters",
	})

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 8000)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 500)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 8000)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 500)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 8000)

	// Gmail defaults
	v.SetDefault("gmail.credentials_json", "")
	v.SetDefault("gmail.credentials_file", "")

	// Unsubscribe defaults
	v.SetDefault("unsubscribe.enabled", false)
	v.SetDefault("unsubscribe.categories", []string{"Spam", "Promotions", "Newsletters"})
	v.SetDefault("unsubscribe.sender_patterns", []string{"noreply@", "no-reply@", "newsletter@", "marketing@"})
	v.SetDefault("unsubscribe.dry_run", true)
	v.SetDefault("unsubscribe.timeout", 10.0)
	v.SetDefault("unsubscribe.min_request_interval", 1.0)

	// History defaults
	v.SetDefault("history.type", "none")
	v.SetDefault("history.sqlite_path", "/data/triage_history.db")
	v.SetDefault("history.mysql_dsn", "user:password@tcp(localhost:3306)/mail_triage")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks every configuration section at construction time so bad
// values fail fast instead of surfacing mid-pass
func (c *Config) Validate() error {
	if err := c.GetTriage().Validate(); err != nil {
		return fmt.Errorf("invalid triage config: %w", err)
	}
	if err := c.GetUnsubscribe().Validate(); err != nil {
		return fmt.Errorf("invalid unsubscribe config: %w", err)
	}
	if err := c.GetHistory().Validate(); err != nil {
		return fmt.Errorf("invalid history config: %w", err)
	}
	switch c.GetString("llm.provider") {
	case "openai", "gemini", "bedrock":
	default:
		return fmt.Errorf("invalid llm config: unsupported provider %q", c.GetString("llm.provider"))
	}
	return nil
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetSeconds converts a numeric seconds value into a duration
func (c *Config) GetSeconds(key string) time.Duration {
	return time.Duration(c.v.GetFloat64(key) * float64(time.Second))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
