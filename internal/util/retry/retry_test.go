package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errThrottled = errors.New("throttled")

func TestDo_SucceedsFirstTry(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errThrottled
		}
		return nil
	}, WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return errThrottled
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, errThrottled)
	assert.Equal(t, 4, attempts, "first attempt plus three retries")
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return Fatal(errors.New("bad request"))
	}, WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, attempts)
}

func TestDo_OnlyIfSkipsUnclassifiedErrors(t *testing.T) {
	t.Parallel()
	other := errors.New("not found")
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return other
	}, OnlyIf(func(err error) bool { return errors.Is(err, errThrottled) }), WithInitialDelay(time.Millisecond))

	assert.Same(t, other, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0

	err := Do(ctx, func() error {
		attempts++
		return errThrottled
	}, WithInitialDelay(50*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errThrottled)
	assert.Equal(t, 1, attempts)
}

func TestFatal(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Fatal(nil))

	base := errors.New("boom")
	wrapped := Fatal(base)
	assert.Equal(t, "boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, IsFatal(base))
}

func TestDo_BackoffGrowsUpToCap(t *testing.T) {
	t.Parallel()
	var stamps []time.Time

	err := Do(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errThrottled
		}
		return nil
	}, WithInitialDelay(5*time.Millisecond), WithMultiplier(10), WithMaxDelay(20*time.Millisecond))

	require.NoError(t, err)
	require.Len(t, stamps, 4)
	// Delays are 5ms, then 50ms capped to 20ms, then 20ms.
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 20*time.Millisecond)
	assert.Less(t, stamps[3].Sub(stamps[0]), 2*time.Second)
}
