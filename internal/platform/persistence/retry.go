package persistence

import (
	"context"
	"log/slog"
	"time"

	"github.com/bankrecon-engine/internal/config"
)

// Retryer applies bounded exponential backoff to store calls. It is the only
// retry mechanism in the system: matching computation is never replayed
// speculatively, only the I/O around it.
type Retryer struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

// NewRetryer creates a retryer from configuration
func NewRetryer(logger *slog.Logger, cfg *config.RetryConfig) *Retryer {
	return &Retryer{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		logger:      logger,
	}
}

// Do invokes op until it succeeds, the attempt budget is spent, or the context
// ends. The delay doubles per attempt and is capped at maxDelay.
func (r *Retryer) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var err error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == r.maxAttempts {
			break
		}

		r.logger.Warn("Store call failed, backing off",
			"operation", name,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}

	return err
}
