// Package retry bounds calls to network collaborators with a per-attempt
// timeout and a small number of retries.
package retry

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Policy describes how a call is attempted. The zero value makes a single
// attempt with no timeout.
type Policy struct {
	Timeout  time.Duration // per attempt; 0 means no extra deadline
	Attempts int           // total attempts including the first
	Backoff  time.Duration // wait before the second attempt, doubled after each retry
}

// DefaultPolicy makes two attempts with a 60s deadline each.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:  60 * time.Second,
		Attempts: 2,
		Backoff:  500 * time.Millisecond,
	}
}

// FromConfig builds a policy from a timeout, a retry count and a backoff.
func FromConfig(timeout time.Duration, retries int, backoff time.Duration) Policy {
	if retries < 0 {
		retries = 0
	}
	return Policy{Timeout: timeout, Attempts: retries + 1, Backoff: backoff}
}

// permanent wraps errors that must not be retried.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err so that Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, the attempts are
// exhausted, or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Backoff

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && backoff > 0 {
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			backoff *= 2
		}

		err = attempt(ctx, p.Timeout, fn)
		if err == nil {
			return nil
		}

		var perm permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func attempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx)
}

// Limiter throttles calls to a provider. A nil Limiter never waits.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter returns nil when rps is not positive.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a call is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
