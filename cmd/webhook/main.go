package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/config"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/bootstrap"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/twilio"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to config file")
	envFile := pflag.StringP("env", "e", ".env", "path to .env file")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && (pflag.CommandLine.Changed("env") || !errors.Is(err, os.ErrNotExist)) {
		slog.Error("loading env file", "error", err)
		os.Exit(1)
	}

	path := *configPath
	if !pflag.CommandLine.Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg.Log, *verbose, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("webhook server stopped", "error", err)
		os.Exit(1)
	}
}

// run serves the webhook until ctx is done or the listener fails.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.ValidateWebhook(); err != nil {
		return err
	}

	clients, err := bootstrap.NewClients(cfg)
	if err != nil {
		return err
	}

	media := twilio.NewMediaClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, clients.Vendor, logger)
	pipeline, err := bootstrap.NewPipeline(cfg, clients, media, logger)
	if err != nil {
		return err
	}

	if cfg.Twilio.SkipValidation {
		logger.Warn("webhook signature validation disabled")
	}
	validator := twilio.NewSignatureValidator(cfg.Twilio.AuthToken, cfg.Twilio.SkipValidation, logger)
	limiter := twilio.NewRateLimiter(cfg.Server.RateLimit, config.Duration(cfg.Server.RateWindow, time.Minute))

	server := twilio.NewWebhookServer(cfg.Server.Addr, pipeline, validator, limiter, logger)

	logger.Info("starting customer webhook",
		"addr", cfg.Server.Addr,
		"speech_backend", cfg.Speech.Backend,
		"extractor_backend", cfg.Extractor.Backend,
		"environment", cfg.D365.EnvironmentURL,
	)

	errCh := server.Start(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
	}

	if err := server.Stop(config.Duration(cfg.Server.ShutdownTimeout, 30*time.Second)); err != nil {
		return errors.Join(serveErr, err)
	}
	if serveErr != nil {
		return fmt.Errorf("serving webhook: %w", serveErr)
	}
	return nil
}
