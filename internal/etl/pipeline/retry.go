package pipeline

import (
	"context"
	"errors"
	"time"
)

// RetryOnce は fn を呼び出し、失敗した場合は delay 待ってからもう一度だけ呼び出します。
// onRetry が指定されていれば待機前に1回目のエラーを渡します。2回目のエラーはそのまま返します。
func RetryOnce[T any](ctx context.Context, delay time.Duration, onRetry func(error), fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil {
		return v, nil
	}
	if onRetry != nil {
		onRetry(err)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		var zero T
		return zero, errors.Join(err, ctx.Err())
	case <-timer.C:
	}
	return fn(ctx)
}
