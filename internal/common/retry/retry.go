// internal/common/retry/retry.go
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds one retried operation.
type Policy struct {
	Attempts          int
	PerAttemptTimeout time.Duration // zero leaves the parent deadline in charge
	BaseDelay         time.Duration // doubled after every failed attempt
	MaxDelay          time.Duration
	Retryable         func(error) bool // nil retries every error
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs op until it succeeds, returns a non-retryable error, or the policy is spent.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, fmt.Errorf("cancelled after %d attempts: %w", attempt, lastErr)
			}
			return zero, err
		}

		result, err := runAttempt(ctx, p.PerAttemptTimeout, op)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		if delay := Backoff(p.BaseDelay, p.MaxDelay, attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, fmt.Errorf("cancelled after %d attempts: %w", attempt+1, lastErr)
			}
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

// Backoff returns base * 2^attempt capped at max. A zero max leaves it uncapped.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base * time.Duration(1<<attempt)
	if max > 0 && delay > max {
		delay = max
	}
	return delay
}
