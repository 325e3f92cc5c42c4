package bundle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryCeiling(t *testing.T) {
	calls := 0
	attempts, err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context, int) error {
		calls++
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 6, calls)
	assert.Equal(t, 6, attempts)
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	attempts, err := withRetry(context.Background(), 5, time.Millisecond, func(_ context.Context, attempt int) error {
		if attempt < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := withRetry(ctx, 5, time.Hour, func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryNegativeRetries(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), -1, time.Millisecond, func(context.Context, int) error {
		calls++
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
