package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/vcdesk/deckeval/internal/domain"
)

// Default retry configuration for stage calls.
const (
	// DefaultMaxAttempts is the total number of tries per stage call.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = 1 * time.Second
	// DefaultMaxDelay caps exponential backoff growth.
	DefaultMaxDelay = 30 * time.Second
	// defaultJitterPercent randomizes delays to avoid thundering herds.
	defaultJitterPercent = 0.1
)

// RetryConfig controls per-stage retry behavior. Malformed model
// output is retried as well as retryable provider errors: a fresh
// completion often parses where the previous one did not.
type RetryConfig struct {
	// MaxAttempts is the total number of tries; minimum 1.
	MaxAttempts int

	// BaseDelay is the initial backoff, doubled after each failure.
	BaseDelay time.Duration

	// MaxDelay bounds the backoff.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the standard stage retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// withRetry runs op up to cfg.MaxAttempts times with exponential
// backoff and jitter. Non-retryable errors return immediately. The
// returned error is tagged with the stage name.
func withRetry[T any](ctx context.Context, cfg RetryConfig, stage string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := cfg.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || !isRetryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w", stage, ctx.Err())
		case <-time.After(jittered(delay)):
		}

		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return zero, fmt.Errorf("%s: %w", stage, lastErr)
}

// retryableError is implemented by provider errors that classify their
// own retryability.
type retryableError interface {
	IsRetryable() bool
}

// isRetryable reports whether another attempt could plausibly succeed.
func isRetryable(err error) bool {
	var malformed *domain.MalformedResponseError
	if errors.As(err, &malformed) {
		return true
	}
	var retryable retryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Float64() * defaultJitterPercent * float64(d))
	return d + jitter
}
