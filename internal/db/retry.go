package db

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls connection retries with exponential backoff.
type RetryConfig struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig suits a database that may still be starting.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 5, InitialBackoff: 250 * time.Millisecond, MaxBackoff: 5 * time.Second}
}

// Retry calls fn until it succeeds, the attempts run out or ctx is done.
// It returns the last error.
func Retry(ctx context.Context, cfg RetryConfig, op string, fn func(context.Context) error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}

	var err error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == cfg.Attempts-1 {
			return err
		}

		delay := backoff(attempt, cfg)
		zap.L().Warn("db: retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

func backoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if cfg.MaxBackoff > 0 && d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	return time.Duration(d)
}
