package apperr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fastPolicy = RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

func TestBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 400*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 800*time.Millisecond, p.Backoff(4))
	assert.Equal(t, time.Second, p.Backoff(5))
	assert.Equal(t, time.Second, p.Backoff(30))
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return context.DeadlineExceeded
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
		calls++
		return NotFound("vault", "v1")
	})
	assert.True(t, IsCode(err, CodeNotFound))
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
		calls++
		return Unavailable("down", nil)
	})
	assert.True(t, IsCode(err, CodeServiceUnavailable))
	assert.Equal(t, 4, calls)
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}, func(ctx context.Context) error {
		calls++
		cancel()
		return Unavailable("down", nil)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryValue(t *testing.T) {
	calls := 0
	v, err := RetryValue(context.Background(), fastPolicy, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.Join(Unavailable("flaky", nil))
		}
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
}
