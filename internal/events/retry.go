package events

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff for listener deliveries
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Upper bound on any single delay
	Multiplier  float64       // Growth factor between attempts
}

// DefaultRetryConfig returns the backoff used for broker publishes
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
}

// retryWithBackoff runs fn until it succeeds, attempts run out, or ctx ends
func retryWithBackoff(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := config.BaseDelay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if config.MaxDelay > 0 && backoff > config.MaxDelay {
			backoff = config.MaxDelay
		}
	}
	return lastErr
}
