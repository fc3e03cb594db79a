package bootstrap_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/config"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/application"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/bootstrap"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/extraction"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/anthropic"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/azure"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/gemini"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/openai"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/pushover"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := bootstrap.NewLogger(config.LogConfig{Level: "warn", Format: "json"}, false, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	buf.Reset()
	logger = bootstrap.NewLogger(config.LogConfig{Level: "error", Format: "tint"}, true, &buf)
	logger.Debug("verbose wins")
	assert.Contains(t, buf.String(), "verbose wins")

	buf.Reset()
	logger = bootstrap.NewLogger(config.LogConfig{}, false, &buf)
	logger.Info("plain")
	assert.True(t, strings.Contains(buf.String(), "msg=plain"))
}

func TestRetryConfig(t *testing.T) {
	retry := bootstrap.RetryConfig(config.RetryConfig{MaxAttempts: 5, BackoffBase: 3, Unit: "10ms"})
	assert.Equal(t, 5, retry.MaxAttempts)
	assert.Equal(t, 30*time.Millisecond, retry.Delay(1))

	retry = bootstrap.RetryConfig(config.RetryConfig{})
	assert.Equal(t, 3, retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, retry.Delay(1))
}

func TestNewSpeechToText(t *testing.T) {
	cfg := testConfig(t)
	clients, err := bootstrap.NewClients(cfg)
	require.NoError(t, err)

	stt, err := bootstrap.NewSpeechToText(cfg, clients, nil)
	require.NoError(t, err)
	assert.IsType(t, &azure.SpeechClient{}, stt)

	cfg.Speech.Backend = "openai"
	stt, err = bootstrap.NewSpeechToText(cfg, clients, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.TranscriptionClient{}, stt)

	cfg.Speech.Backend = "none"
	stt, err = bootstrap.NewSpeechToText(cfg, clients, nil)
	require.NoError(t, err)
	assert.IsType(t, &application.NoopSTT{}, stt)

	cfg.Speech.Backend = "bogus"
	_, err = bootstrap.NewSpeechToText(cfg, clients, nil)
	assert.Error(t, err)
}

func TestNewExtractor(t *testing.T) {
	cfg := testConfig(t)
	clients, err := bootstrap.NewClients(cfg)
	require.NoError(t, err)

	tests := []struct {
		backend string
		want    any
	}{
		{"pattern", &extraction.PatternExtractor{}},
		{"openai", &openai.Extractor{}},
		{"anthropic", &anthropic.Extractor{}},
		{"gemini", &gemini.Extractor{}},
	}
	for _, tt := range tests {
		cfg.Extractor.Backend = tt.backend
		got, err := bootstrap.NewExtractor(cfg, clients)
		require.NoError(t, err, tt.backend)
		assert.IsType(t, tt.want, got, tt.backend)
	}

	cfg.Extractor.Backend = "bogus"
	_, err = bootstrap.NewExtractor(cfg, clients)
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	cfg := testConfig(t)
	clients, err := bootstrap.NewClients(cfg)
	require.NoError(t, err)

	assert.IsType(t, &application.NoopNotifier{}, bootstrap.NewNotifier(cfg.Pushover, clients))

	cfg.Pushover.Enabled = true
	assert.IsType(t, &pushover.Client{}, bootstrap.NewNotifier(cfg.Pushover, clients))
}

func TestNewClientsWithProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.SOCKSProxy = "127.0.0.1:1080"
	cfg.D365.Timeout = "90s"

	clients, err := bootstrap.NewClients(cfg)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, clients.Vendor.Timeout)
	assert.Equal(t, 90*time.Second, clients.ERP.Timeout)
	assert.NotNil(t, clients.ERP.Transport)
}
