// Package retry provides exponential backoff for the diff-source providers.
// The analysis core never retries; a failed fetch is retried here, before a
// ChangeSet is ever built.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Config configures retry behavior with exponential backoff.
type Config struct {
	MaxRetries int           // maximum retry attempts after the first try
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // cap on the computed delay
	Multiplier float64       // exponential backoff multiplier
	Jitter     bool          // randomize delays to avoid thundering herd
}

// DefaultConfig returns a retry configuration with sensible defaults for
// hosting-API calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// WithBackoff executes operation, retrying transient failures with
// exponential backoff. It returns the last error once retries are exhausted
// or the context is done.
func WithBackoff(ctx context.Context, cfg Config, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg, attempt)
			log.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying after failure")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := operation(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return lastErr
}

func backoffDelay(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	if capped := float64(cfg.MaxDelay); delay > capped {
		delay = capped
	}
	return time.Duration(delay)
}
