// Package bootstrap builds the application graph from a config for the
// commands under cmd/.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lmittmann/tint"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/config"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/application"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/extraction"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/anthropic"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/azure"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/d365"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/gemini"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/httpclient"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/openai"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/pushover"
)

func NewLogger(cfg config.LogConfig, verbose bool, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "tint":
		handler = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.TimeOnly})
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Clients holds the outbound HTTP clients shared by the adapters.
type Clients struct {
	// Vendor is used for speech, model and notification calls.
	Vendor *http.Client
	// ERP carries the longer ERP timeout.
	ERP *http.Client
}

func NewClients(cfg *config.Config) (*Clients, error) {
	vendor, err := httpclient.New(config.Duration(cfg.HTTP.Timeout, 30*time.Second), cfg.HTTP.SOCKSProxy)
	if err != nil {
		return nil, fmt.Errorf("creating vendor HTTP client: %w", err)
	}
	erp, err := httpclient.New(config.Duration(cfg.D365.Timeout, 60*time.Second), cfg.HTTP.SOCKSProxy)
	if err != nil {
		return nil, fmt.Errorf("creating ERP HTTP client: %w", err)
	}
	return &Clients{Vendor: vendor, ERP: erp}, nil
}

func RetryConfig(cfg config.RetryConfig) infra.RetryConfig {
	retry := infra.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffBase > 0 {
		retry.BackoffBase = cfg.BackoffBase
	}
	retry.Unit = config.Duration(cfg.Unit, retry.Unit)
	return retry
}

// NewCustomerService wires the token provider and the OData client.
func NewCustomerService(cfg *config.Config, clients *Clients, logger *slog.Logger) *application.CustomerService {
	creds := domain.Credentials{
		TenantID:     cfg.D365.TenantID,
		ClientID:     cfg.D365.ClientID,
		ClientSecret: cfg.D365.ClientSecret,
		BaseURL:      cfg.D365.EnvironmentURL,
	}
	tokens := d365.NewTokenProviderWithURL(creds, cfg.D365.AuthorityHost, d365.NewMemoryTokenCache(), clients.ERP, logger)
	client := d365.NewClientWithHTTP(cfg.D365.EnvironmentURL, clients.ERP, RetryConfig(cfg.Retry), logger)

	connect := func(token string) application.RecordStore {
		return client.WithToken(token)
	}
	return application.NewCustomerService(tokens, connect, cfg.D365.Currency, logger)
}

func NewSpeechToText(cfg *config.Config, clients *Clients, logger *slog.Logger) (application.SpeechToText, error) {
	switch cfg.Speech.Backend {
	case "azure":
		return azure.NewSpeechClient(cfg.Azure.SpeechKey, cfg.Azure.SpeechRegion, cfg.Speech.Language, clients.Vendor, logger), nil
	case "openai":
		sdk := openai.NewSDKClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, clients.Vendor)
		return openai.NewTranscriptionClient(sdk, cfg.OpenAI.TranscriptionModel, cfg.OpenAI.Language), nil
	case "none":
		return &application.NoopSTT{}, nil
	default:
		return nil, fmt.Errorf("unknown speech backend %q", cfg.Speech.Backend)
	}
}

func NewExtractor(cfg *config.Config, clients *Clients) (application.FieldExtractor, error) {
	switch cfg.Extractor.Backend {
	case "pattern":
		return extraction.NewPatternExtractor(), nil
	case "openai":
		sdk := openai.NewSDKClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, clients.Vendor)
		return openai.NewExtractor(sdk, cfg.OpenAI.ChatModel), nil
	case "anthropic":
		return anthropic.NewExtractor(cfg.Anthropic.APIKey, cfg.Anthropic.Model, clients.Vendor), nil
	case "gemini":
		return gemini.NewExtractor(cfg.Gemini.APIKey, cfg.Gemini.Model, clients.Vendor), nil
	default:
		return nil, fmt.Errorf("unknown extractor backend %q", cfg.Extractor.Backend)
	}
}

func NewNotifier(cfg config.PushoverConfig, clients *Clients) application.Notifier {
	if !cfg.Enabled {
		return &application.NoopNotifier{}
	}
	return pushover.NewClientWithURL(cfg.Token, cfg.UserKey, cfg.Title, pushover.DefaultBaseURL, clients.Vendor)
}

// NewPipeline wires every stage of the voice pipeline around media.
func NewPipeline(cfg *config.Config, clients *Clients, media application.MediaFetcher, logger *slog.Logger) (*application.Pipeline, error) {
	stt, err := NewSpeechToText(cfg, clients, logger)
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(cfg, clients)
	if err != nil {
		return nil, err
	}

	return application.NewPipeline(
		media,
		stt,
		extractor,
		NewCustomerService(cfg, clients, logger),
		NewNotifier(cfg.Pushover, clients),
		logger,
	), nil
}
