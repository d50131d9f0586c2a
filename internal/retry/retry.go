// Package retry runs an operation with bounded exponential-backoff retry.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Default policy values used by the Audius client.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1000 * time.Millisecond
)

// Policy controls how many times an operation runs and how long to wait
// between attempts. The wait before attempt n+1 is BaseDelay * 2^(n-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnRetry, if set, is called after a failed attempt and before the wait.
	// attempt is 1-based.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns 3 attempts with a 1s base delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// Delay returns the wait applied after the given zero-based attempt index.
func (p Policy) Delay(attemptIndex int) time.Duration {
	if p.BaseDelay <= 0 || attemptIndex < 0 {
		return 0
	}
	return p.BaseDelay << uint(attemptIndex)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the inner error
// immediately without waiting.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do executes op until it succeeds, fails permanently, or MaxAttempts
// consecutive attempts have failed. On exhaustion the last error from op is
// returned as is; callers add their own context. A canceled ctx aborts the
// wait and returns ctx.Err().
//
// The wait only blocks the calling goroutine.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		result  T
		attempt int
		lastErr error
	)

	limited := goretry.WithMaxRetries(uint64(attempts-1), newBackoff(p.BaseDelay))
	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := limited.Next()
		if !stop && p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		}
		return delay, stop
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		lastErr = err
		return goretry.RetryableError(err)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// newBackoff returns the doubling backoff for base. A non-positive base
// retries without waiting.
func newBackoff(base time.Duration) goretry.Backoff {
	if base <= 0 {
		return goretry.BackoffFunc(func() (time.Duration, bool) {
			return 0, false
		})
	}
	return goretry.NewExponential(base)
}
