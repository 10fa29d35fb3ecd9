package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes one retry budget: how many attempts in total and the
// delay before the second attempt. The delay doubles after every failure,
// so attempt n waits BaseDelay * 2^(n-2) before running.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Notify is called after each failed attempt with the error and the wait
// before the next attempt.
type Notify func(err error, next time.Duration)

// Permanent marks err as not retryable. Do stops immediately and returns
// the wrapped error.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op under the policy. It returns nil on the first success and the
// last observed error once the attempt budget is exhausted. A context
// cancellation aborts the wait between attempts.
func Do(ctx context.Context, p Policy, op func() error) error {
	return DoNotify(ctx, p, op, nil)
}

// DoNotify is Do with a per-failure callback, used by the controllers to
// log and count individual attempts.
func DoNotify(ctx context.Context, p Policy, op func() error, notify Notify) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0 // deterministic schedule
	b.Multiplier = 2
	b.MaxInterval = 24 * time.Hour // never clamp the doubling
	b.MaxElapsedTime = 0           // the attempt count is the only budget

	wrapped := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	return backoff.RetryNotify(op, wrapped, backoff.Notify(notify))
}
