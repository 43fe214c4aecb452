package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errConflict = errors.New("serialization failure")

func fast(extra ...Option) []Option {
	return append([]Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond), WithJitter(0)}, extra...)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errConflict)
		}
		return nil
	}, fast(WithMaxAttempts(5))...)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	plain := errors.New("insufficient funds")
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return plain
	}, fast()...)

	assert.ErrorIs(t, err, plain)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentIsUnwrapped(t *testing.T) {
	cause := errors.New("bad request")
	err := Do(context.Background(), func(context.Context) error {
		return Permanent(cause)
	}, fast()...)
	assert.Equal(t, cause, err)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var retries []int
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errConflict
	}, fast(
		WithMaxAttempts(4),
		WithRetryIf(func(err error) bool { return errors.Is(err, errConflict) }),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }),
	)...)

	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, retries)
}

func TestDo_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), New(fast()...), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, Retryable(errConflict)
		}
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCalculateDelay_Capped(t *testing.T) {
	r := New(WithInitialDelay(10*time.Millisecond), WithMaxDelay(25*time.Millisecond), WithJitter(0))
	assert.Equal(t, 10*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 20*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 25*time.Millisecond, r.calculateDelay(3))
}

func TestDo_RetryableMarkerIsStripped(t *testing.T) {
	err := Do(context.Background(), func(context.Context) error {
		return Retryable(errConflict)
	}, fast(WithMaxAttempts(2))...)
	assert.Same(t, errConflict, err)
}

func TestTransactionRetrier(t *testing.T) {
	r := TransactionRetrier(func(error) bool { return true }, nil)
	assert.Equal(t, 5, r.Attempts())
}

func TestStartupRetrier_StopsOnCancellation(t *testing.T) {
	r := StartupRetrier(nil)
	assert.Equal(t, 8, r.Attempts())
	assert.True(t, r.shouldRetry(errors.New("connection refused")))
	assert.False(t, r.shouldRetry(context.Canceled))
	assert.False(t, r.shouldRetry(fmt.Errorf("dial: %w", context.DeadlineExceeded)))
}
