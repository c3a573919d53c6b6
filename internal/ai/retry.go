package ai

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// retryConfig controls exponential backoff for upstream calls.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
}

func defaultRetryConfig(maxRetries int) retryConfig {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return retryConfig{
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
		multiplier: 2.0,
	}
}

// withRetry runs fn with exponential backoff, honoring ctx cancellation
// between attempts.
func withRetry(ctx context.Context, cfg retryConfig, log *logrus.Logger, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.maxRetries {
			break
		}

		delay := cfg.delay(attempt)
		log.WithError(lastErr).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
		}).Debug("upstream call failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("retry limit exceeded after %d attempts: %w", cfg.maxRetries+1, lastErr)
}

func (c retryConfig) delay(attempt int) time.Duration {
	d := float64(c.baseDelay) * math.Pow(c.multiplier, float64(attempt))
	if d > float64(c.maxDelay) {
		d = float64(c.maxDelay)
	}
	// Up to 10% jitter.
	d += d * 0.1 * rand.Float64()
	return time.Duration(d)
}
