package usecase

import (
	"context"
	"errors"
	"time"

	"finance_etl/internal/feature/forex/domain/entity"
)

// DefaultWindow は範囲指定が無い場合に返す期間です。
const DefaultWindow = 30 * 24 * time.Hour

// ErrInvalidRange は範囲が読み取れない、または逆転している場合に返されます。
var ErrInvalidRange = errors.New("from and to must be YYYY-MM-DD with from <= to")

// RateRepository はレートの読み取りレイヤーを抽象化します。
type RateRepository interface {
	FindRange(ctx context.Context, from, to time.Time) ([]entity.Rate, error)
}

type ratesUsecase struct {
	rates RateRepository
	now   func() time.Time
}

// NewRatesUsecase はratesUsecaseの新しいインスタンスを生成します。
func NewRatesUsecase(rates RateRepository) *ratesUsecase {
	return &ratesUsecase{rates: rates, now: time.Now}
}

// GetRates は from から to (YYYY-MM-DD) のレートを返します。
// 省略された to は今日、省略された from は to の30日前になります。
func (u *ratesUsecase) GetRates(ctx context.Context, from, to string) ([]entity.Rate, error) {
	end := truncateDay(u.now())
	if to != "" {
		t, err := ParseDay(to)
		if err != nil {
			return nil, ErrInvalidRange
		}
		end = t
	}
	start := end.Add(-DefaultWindow)
	if from != "" {
		f, err := ParseDay(from)
		if err != nil {
			return nil, ErrInvalidRange
		}
		start = f
	}
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	return u.rates.FindRange(ctx, start, end)
}
