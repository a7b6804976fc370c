package worker

import (
	"context"
	"errors"
	"time"

	"github.com/iconidentify/newsreel/internal/domain"
)

// RetryConfig holds backoff settings for transient store failures.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the backoff used when Config.Retry is unset.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// retry calls fn until it succeeds, shouldRetry rejects the error, attempts
// run out, or ctx is done. It returns the last error and the attempt count.
func retry(ctx context.Context, cfg RetryConfig, fn func() error, shouldRetry func(error) bool) (int, error) {
	delay := cfg.InitialDelay
	var err error

	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return attempt, nil
		}
		if attempt >= cfg.MaxAttempts || !shouldRetry(err) {
			return attempt, err
		}

		select {
		case <-ctx.Done():
			return attempt, err
		case <-time.After(delay):
		}

		delay = min(time.Duration(float64(delay)*cfg.BackoffFactor), cfg.MaxDelay)
	}
}

// transient reports whether an increment failure is worth retrying. Missing
// videos and expired contexts are final.
func transient(err error) bool {
	return !errors.Is(err, domain.ErrVideoNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
