package infra

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

// RetryConfig holds configuration for retry logic.
// The delay before attempt n+1 is Unit * BackoffBase^n.
type RetryConfig struct {
	MaxAttempts int
	BackoffBase int
	Unit        time.Duration

	// Sleep waits between attempts. Nil uses a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig returns the ERP retry policy: 3 attempts, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BackoffBase: 2,
		Unit:        time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (c RetryConfig) Delay(attempt int) time.Duration {
	return time.Duration(math.Pow(float64(c.BackoffBase), float64(attempt))) * c.Unit
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient. Errors not marked abort WithRetry immediately.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// WithRetry executes fn up to MaxAttempts times with exponential backoff.
// It only ever returns terminal errors: the first non-retryable error,
// a *domain.TransportError when the last attempt failed at the transport
// level, or a *domain.RetriesExhaustedError otherwise.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		// Only the caller's context stops retries. A per-attempt client
		// timeout also matches context.DeadlineExceeded and is retried.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var r *retryableError
		if !errors.As(err, &r) {
			return err
		}
		lastErr = r.err

		// Last attempt, don't wait
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	var transportErr *domain.TransportError
	if errors.As(lastErr, &transportErr) {
		transportErr.Attempts = cfg.MaxAttempts
		return transportErr
	}
	return &domain.RetriesExhaustedError{Attempts: cfg.MaxAttempts, Last: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRetryableHTTPStatus returns true if the HTTP status code is retryable
func IsRetryableHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
