// Package ratelimiter paces calls to rate-limited provider APIs.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Limiter は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type Limiter interface {
	// Wait blocks until the next call is allowed or ctx is done.
	Wait(ctx context.Context) error
}

// Unlimited never waits.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

// RateLimiter は interval ごとに limit 回までの呼び出しを許可します。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	log       zerolog.Logger
	now       func() time.Time
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit が 0 以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		log:       log,
		now:       time.Now,
	}
}

// Wait はレートリミットの上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rl.limit <= 0 {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		return nil
	}

	if sleep := rl.interval - now.Sub(rl.lastReset); sleep > 0 {
		rl.log.Info().Int("limit", rl.limit).Dur("sleep", sleep).Msg("rate limit reached, waiting")
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			rl.count--
			return ctx.Err()
		case <-timer.C:
		}
	}
	// リセット
	rl.count = 1
	rl.lastReset = rl.now()
	return nil
}
