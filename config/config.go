package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	D365      D365Config      `yaml:"d365"`
	Retry     RetryConfig     `yaml:"retry"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Server    ServerConfig    `yaml:"server"`
	Speech    SpeechConfig    `yaml:"speech"`
	Extractor ExtractorConfig `yaml:"extractor"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Azure     AzureConfig     `yaml:"azure"`
	HTTP      HTTPConfig      `yaml:"http"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Log       LogConfig       `yaml:"log"`
}

type D365Config struct {
	TenantID       string `yaml:"tenant_id"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	EnvironmentURL string `yaml:"environment_url"`
	AuthorityHost  string `yaml:"authority_host"`
	Currency       string `yaml:"currency"`
	Timeout        string `yaml:"timeout"`
}

type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	BackoffBase int    `yaml:"backoff_base"`
	Unit        string `yaml:"unit"`
}

type TwilioConfig struct {
	AccountSID     string `yaml:"account_sid"`
	AuthToken      string `yaml:"auth_token"`
	SkipValidation bool   `yaml:"skip_validation"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	RateLimit       int    `yaml:"rate_limit"`
	RateWindow      string `yaml:"rate_window"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type SpeechConfig struct {
	// Backend is "azure" or "openai".
	Backend  string `yaml:"backend"`
	Language string `yaml:"language"`
}

type ExtractorConfig struct {
	// Backend is "pattern", "openai", "anthropic" or "gemini".
	Backend string `yaml:"backend"`
}

type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	ChatModel          string `yaml:"chat_model"`
	TranscriptionModel string `yaml:"transcription_model"`
	Language           string `yaml:"language"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AzureConfig struct {
	SpeechKey    string `yaml:"speech_key"`
	SpeechRegion string `yaml:"speech_region"`
}

type HTTPConfig struct {
	Timeout    string `yaml:"timeout"`
	SOCKSProxy string `yaml:"socks_proxy"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Title   string `yaml:"title"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "text", "json" or "tint".
	Format string `yaml:"format"`
}

// Load reads a YAML config file, expanding ${VAR} references from the
// environment. An empty path yields a config built from defaults and
// environment variables only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	return &cfg, nil
}

func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

func (c *Config) setDefaults() {
	c.D365.TenantID = envOr(c.D365.TenantID, "D365_TENANT_ID")
	c.D365.ClientID = envOr(c.D365.ClientID, "D365_CLIENT_ID")
	c.D365.ClientSecret = envOr(c.D365.ClientSecret, "D365_CLIENT_SECRET")
	c.D365.EnvironmentURL = envOr(c.D365.EnvironmentURL, "D365_ENVIRONMENT_URL")
	c.Twilio.AccountSID = envOr(c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	c.Twilio.AuthToken = envOr(c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	c.OpenAI.APIKey = envOr(c.OpenAI.APIKey, "OPENAI_API_KEY")
	c.Anthropic.APIKey = envOr(c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	c.Gemini.APIKey = envOr(c.Gemini.APIKey, "GEMINI_API_KEY")
	c.Azure.SpeechKey = envOr(c.Azure.SpeechKey, "AZURE_SPEECH_KEY")
	c.Azure.SpeechRegion = envOr(c.Azure.SpeechRegion, "AZURE_SPEECH_REGION")
	c.Pushover.Token = envOr(c.Pushover.Token, "PUSHOVER_TOKEN")
	c.Pushover.UserKey = envOr(c.Pushover.UserKey, "PUSHOVER_USER_KEY")

	if c.D365.AuthorityHost == "" {
		c.D365.AuthorityHost = "https://login.microsoftonline.com"
	}
	if c.D365.Currency == "" {
		c.D365.Currency = "USD"
	}
	if c.D365.Timeout == "" {
		c.D365.Timeout = "60s"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BackoffBase == 0 {
		c.Retry.BackoffBase = 2
	}
	if c.Retry.Unit == "" {
		c.Retry.Unit = "1s"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Server.RateWindow == "" {
		c.Server.RateWindow = "1m"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}
	if c.Speech.Backend == "" {
		c.Speech.Backend = "azure"
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en-US"
	}
	if c.Extractor.Backend == "" {
		c.Extractor.Backend = "pattern"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.HTTP.Timeout == "" {
		c.HTTP.Timeout = "30s"
	}
	if c.Pushover.Title == "" {
		c.Pushover.Title = "D365 Customer Creator"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// MissingSettingsError lists required settings that are not set.
type MissingSettingsError struct {
	Settings []string
}

func (e *MissingSettingsError) Error() string {
	return "missing required settings: " + strings.Join(e.Settings, ", ")
}

// ValidateD365 checks the settings needed to reach the ERP.
func (c *Config) ValidateD365() error {
	var missing []string
	check := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	check(c.D365.TenantID, "D365_TENANT_ID")
	check(c.D365.ClientID, "D365_CLIENT_ID")
	check(c.D365.ClientSecret, "D365_CLIENT_SECRET")
	check(c.D365.EnvironmentURL, "D365_ENVIRONMENT_URL")

	if len(missing) > 0 {
		return &MissingSettingsError{Settings: missing}
	}
	return nil
}

// ValidatePipeline checks the ERP settings plus everything the selected
// speech and extraction backends need.
func (c *Config) ValidatePipeline() error {
	var errs []error
	if err := c.ValidateD365(); err != nil {
		errs = append(errs, err)
	}

	var missing []string
	switch c.Speech.Backend {
	case "azure":
		if c.Azure.SpeechKey == "" {
			missing = append(missing, "AZURE_SPEECH_KEY")
		}
		if c.Azure.SpeechRegion == "" {
			missing = append(missing, "AZURE_SPEECH_REGION")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		errs = append(errs, fmt.Errorf("unknown speech backend %q", c.Speech.Backend))
	}

	switch c.Extractor.Backend {
	case "pattern":
	case "openai":
		if c.OpenAI.APIKey == "" && c.Speech.Backend != "openai" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		errs = append(errs, fmt.Errorf("unknown extractor backend %q", c.Extractor.Backend))
	}

	if len(missing) > 0 {
		errs = append(errs, &MissingSettingsError{Settings: missing})
	}
	return errors.Join(errs...)
}

// ValidateWebhook checks the pipeline settings plus the messaging account.
func (c *Config) ValidateWebhook() error {
	var errs []error
	if err := c.ValidatePipeline(); err != nil {
		errs = append(errs, err)
	}

	var missing []string
	if c.Twilio.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.Twilio.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if len(missing) > 0 {
		errs = append(errs, &MissingSettingsError{Settings: missing})
	}
	return errors.Join(errs...)
}

// Duration parses value, returning fallback when it is empty or invalid.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
