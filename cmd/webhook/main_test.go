package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadConfig(t *testing.T, addr string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`
d365:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret-1
  environment_url: https://contoso.operations.dynamics.com
twilio:
  account_sid: AC123
  auth_token: token
server:
  addr: %q
  shutdown_timeout: 2s
azure:
  speech_key: key
  speech_region: westeurope
`, addr)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestRun_StopsWhenContextDone(t *testing.T) {
	cfg := loadConfig(t, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, discardLogger()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestRun_ReportsListenerFailure(t *testing.T) {
	cfg := loadConfig(t, "127.0.0.1:-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, cfg, discardLogger())
	assert.ErrorContains(t, err, "serving webhook")
	assert.NoError(t, ctx.Err(), "returned because of the listener, not the deadline")
}

func TestRun_RequiresMessagingAccount(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	cfg := loadConfig(t, "127.0.0.1:0")
	cfg.Twilio.AccountSID = ""
	cfg.Twilio.AuthToken = ""

	err := run(context.Background(), cfg, discardLogger())

	var missing *config.MissingSettingsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN"}, missing.Settings)
}
