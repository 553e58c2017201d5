package http

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestExponentialBackoffBounds(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	}

	// Jitter is ±25%, so attempt 0 lands in [75ms, 125ms].
	for i := 0; i < 50; i++ {
		b := ExponentialBackoff(0, config)
		assert.GreaterOrEqual(t, b, 75*time.Millisecond)
		assert.LessOrEqual(t, b, 125*time.Millisecond)
	}

	// Large attempts are capped at MaxBackoff.
	for i := 0; i < 50; i++ {
		b := ExponentialBackoff(20, config)
		assert.LessOrEqual(t, b, time.Second)
	}
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("plain error")))
	assert.True(t, ShouldRetry(NewRateLimitError("test", "slow down")))
	assert.True(t, ShouldRetry(NewTimeoutError("test", "deadline")))
	assert.False(t, ShouldRetry(NewAuthenticationError("test", "bad key")))
	assert.False(t, ShouldRetry(NewInvalidRequestError("test", "bad body")))
}

func TestRetryWithBackoffSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewServiceUnavailableError("test", "boom")
		}
		return nil
	}

	err := RetryWithBackoff(context.Background(), op, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnTerminalError(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		return NewAuthenticationError("test", "bad key")
	}

	err := RetryWithBackoff(context.Background(), op, testConfig())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := NewRateLimitError("test", "slow down")
	op := func(ctx context.Context) error {
		calls++
		return transient
	}

	err := RetryWithBackoff(context.Background(), op, testConfig())
	require.Error(t, err)
	assert.Equal(t, 4, calls, "initial attempt plus MaxRetries")

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, ErrTypeRateLimit, httpErr.Type)
}

func TestRetryWithBackoffHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		cancel()
		return NewServiceUnavailableError("test", "boom")
	}

	err := RetryWithBackoff(ctx, op, testConfig())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestErrorIsMatchesByType(t *testing.T) {
	a := NewRateLimitError("openai", "x")
	b := NewRateLimitError("github", "y")
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, NewTimeoutError("openai", "z")))
}
