package httpx

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
)

// RetryPolicy is the exponential-backoff schedule shared by the mail and
// bookmark clients. Only rate-limit errors are retried; every other error tag
// propagates immediately (run-level recovery is the safety net for transient
// network failures).
type RetryPolicy struct {
	Base       time.Duration
	Factor     float64
	MaxRetries int
}

// DefaultRetryPolicy matches the upstream clients' defaults: 1s base,
// doubling, at most 3 extra attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Base: time.Second, Factor: 2, MaxRetries: 3}
}

// WithRetry runs op, retrying only when the returned error is tagged as rate
// limited. A provider-supplied Retry-After overrides the backoff delay for
// that attempt.
func WithRetry(ctx context.Context, policy RetryPolicy, logger *zap.Logger, op func(ctx context.Context) error) error {
	delay := policy.Base
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var rateLimited *domain.RateLimitedError
		if !errors.As(err, &rateLimited) || attempt >= policy.MaxRetries {
			return err
		}

		wait := delay
		if rateLimited.RetryAfter != nil {
			wait = *rateLimited.RetryAfter
		}
		if logger != nil {
			logger.Warn("rate limited, backing off",
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1),
			)
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		delay = time.Duration(float64(delay) * policy.Factor)
	}
}
