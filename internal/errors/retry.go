// internal/errors/retry.go - bounded retry with exponential backoff
package errors

import (
	"context"
	"math"
	"time"
)

// RetryPolicy bounds every wait-and-retry loop in the scrapers.
type RetryPolicy struct {
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DefaultRetryPolicy returns the policy used when configuration leaves it out.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   5,
		BaseDelay:     time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
	}
}

// Between runs after a failed attempt and before the backoff delay. The
// scrapers use it to refresh the page. Returning an error aborts the loop.
type Between func(ctx context.Context, attempt int, err error) error

// Do calls fn until it succeeds, fails with a non-transient error, or the
// attempt budget runs out. Exhaustion is reported as KindTransientRender.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(attempt int) error, between Between) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		if !IsTransient(err) || ctx.Err() != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if between != nil {
			if herr := between(ctx, attempt, err); herr != nil {
				return herr
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}

	return Exhausted(op, attempts, lastErr)
}

// Delay is the backoff before the attempt following the given one.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(attempt-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
