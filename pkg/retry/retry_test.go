package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDoSuccessNoRetry tests that a successful operation runs exactly once
func TestDoSuccessNoRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

// TestDoExhaustsbudget tests that the last error surfaces after MaxAttempts
func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	boom := errors.New("still failing")
	err := Do(context.Background(), Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}, func() error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls)
}

// TestDoEventualSuccess tests recovery partway through the budget
func TestDoEventualSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

// TestDoPermanentStops tests that Permanent errors short-circuit the budget
func TestDoPermanentStops(t *testing.T) {
	calls := 0
	boom := errors.New("hard failure")
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func() error {
		calls++
		return Permanent(boom)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// TestBackoffShape tests the doubling schedule: with a 20ms base delay the
// wait before attempt 2 is ~20ms and before attempt 3 is ~40ms.
func TestBackoffShape(t *testing.T) {
	base := 20 * time.Millisecond
	var waits []time.Duration

	_ = DoNotify(context.Background(), Policy{MaxAttempts: 3, BaseDelay: base},
		func() error { return errors.New("fail") },
		func(err error, next time.Duration) { waits = append(waits, next) },
	)

	require.Len(t, waits, 2)
	assert.Equal(t, base, waits[0])
	assert.Equal(t, 2*base, waits[1])
}

// TestDoContextCancelled tests that cancellation aborts the wait
func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, Policy{MaxAttempts: 10, BaseDelay: time.Minute}, func() error {
		calls++
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

// TestDoZeroAttempts tests that a non-positive budget still runs once
func TestDoZeroAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 0, BaseDelay: time.Millisecond}, func() error {
		calls++
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
