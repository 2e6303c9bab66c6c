package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("上限までは待機しない", func(t *testing.T) {
		t.Parallel()
		rl := NewRateLimiter(3, time.Hour, zerolog.Nop())
		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, rl.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 3, rl.count)
	})

	t.Run("上限を超えると次の区間まで待機する", func(t *testing.T) {
		t.Parallel()
		rl := NewRateLimiter(1, 50*time.Millisecond, zerolog.Nop())
		require.NoError(t, rl.Wait(context.Background()))
		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.Equal(t, 1, rl.count)
	})

	t.Run("区間が過ぎるとカウントがリセットされる", func(t *testing.T) {
		t.Parallel()
		rl := NewRateLimiter(1, time.Minute, zerolog.Nop())
		current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return current }
		rl.lastReset = current

		require.NoError(t, rl.Wait(context.Background()))
		current = current.Add(2 * time.Minute)
		require.NoError(t, rl.Wait(context.Background()))
		assert.Equal(t, 1, rl.count)
	})

	t.Run("待機中のキャンセル", func(t *testing.T) {
		t.Parallel()
		rl := NewRateLimiter(1, time.Hour, zerolog.Nop())
		require.NoError(t, rl.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("上限0は制限なし", func(t *testing.T) {
		t.Parallel()
		rl := NewRateLimiter(0, time.Hour, zerolog.Nop())
		for i := 0; i < 10; i++ {
			require.NoError(t, rl.Wait(context.Background()))
		}
	})
}

func TestUnlimited(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Unlimited{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Unlimited{}.Wait(ctx), context.Canceled)
}
