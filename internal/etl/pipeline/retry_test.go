package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/pipeline"
)

func TestRetryOnce(t *testing.T) {
	t.Parallel()

	t.Run("一回目で成功すれば再試行しない", func(t *testing.T) {
		t.Parallel()
		calls := 0
		v, err := pipeline.RetryOnce(context.Background(), time.Hour, nil, func(context.Context) (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("一回失敗しても二回目で成功する", func(t *testing.T) {
		t.Parallel()
		calls, retried := 0, 0
		v, err := pipeline.RetryOnce(context.Background(), time.Millisecond, func(error) { retried++ }, func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("timeout")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, retried)
	})

	t.Run("二回とも失敗すると二回目のエラーを返す", func(t *testing.T) {
		t.Parallel()
		calls := 0
		second := errors.New("second")
		_, err := pipeline.RetryOnce(context.Background(), time.Millisecond, nil, func(context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("first")
			}
			return 0, second
		})
		assert.ErrorIs(t, err, second)
		assert.Equal(t, 2, calls)
	})

	t.Run("待機中のキャンセルで中断する", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := pipeline.RetryOnce(ctx, time.Hour, func(error) { cancel() }, func(context.Context) (int, error) {
			calls++
			return 0, errors.New("boom")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	type params struct {
		Symbols  []string `validate:"required,min=1,dive,required"`
		Period   string   `validate:"required,period"`
		Interval string   `validate:"oneof=1day 1week"`
		Start    int      `validate:"min=1,max=12"`
		End      int      `validate:"gtefield=Start"`
	}

	t.Run("正常系", func(t *testing.T) {
		t.Parallel()
		err := pipeline.Validate("stock", params{Symbols: []string{"AAPL"}, Period: "30D", Interval: "1day", Start: 1, End: 2})
		assert.NoError(t, err)
	})

	t.Run("全ての問題をまとめて返す", func(t *testing.T) {
		t.Parallel()
		err := pipeline.Validate("stock", params{Period: "30 days", Interval: "1hour", Start: 13, End: 1}, "extra problem")

		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "stock", ve.Pipeline)
		assert.Equal(t, "extra problem", ve.Problems[0])
		assert.Contains(t, ve.Problems, "Symbols is required")
		assert.Contains(t, ve.Problems, `Period must look like 30D, 6W, 3M or 2Y, got "30 days"`)
		assert.Contains(t, ve.Problems, "Interval must be one of: 1day, 1week")
		assert.Contains(t, ve.Problems, "Start must be at most 12")
		assert.Contains(t, ve.Problems, "End cannot be before Start")
	})

	t.Run("除外したフィールドは検証しない", func(t *testing.T) {
		t.Parallel()
		p := params{Period: "30D", Interval: "1day", Start: 1, End: 1}
		assert.NoError(t, pipeline.ValidateExcept("stock", p, "Symbols"))

		p.Period = "soon"
		err := pipeline.ValidateExcept("stock", p, "Symbols")
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{`Period must look like 30D, 6W, 3M or 2Y, got "soon"`}, ve.Problems)
	})
}

func TestLogReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := pipeline.NewLogReporter(zerolog.New(&buf))
	id := uuid.New()

	rep.Report(context.Background(), pipeline.Event{RunID: id, Source: "forex", Stage: pipeline.StageLoad, Status: pipeline.StatusFailed, Err: errors.New("disk full")})

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"run_id":"`+id.String()+`"`)
	assert.Contains(t, out, `"source":"forex"`)
	assert.Contains(t, out, `"error":"disk full"`)
}
