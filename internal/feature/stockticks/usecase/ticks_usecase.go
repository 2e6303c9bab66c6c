package usecase

import (
	"context"
	"strings"

	"finance_etl/internal/feature/stockticks/domain/entity"
)

const (
	// DefaultLimit はティッククエリのデフォルト返却件数です。
	DefaultLimit = 200
	// MaxLimit はティックの最大返却件数です。
	MaxLimit = 5000
)

// TickRepository はティックデータの読み取りレイヤーを抽象化します。
type TickRepository interface {
	// Find は新しい順に最大 limit 件のティックを返します。
	Find(ctx context.Context, symbol string, limit int) ([]entity.Tick, error)
}

// ticksUsecase はティック参照のユースケースです。
type ticksUsecase struct {
	ticks TickRepository
}

// NewTicksUsecase はticksUsecaseの新しいインスタンスを生成します。
func NewTicksUsecase(ticks TickRepository) *ticksUsecase {
	return &ticksUsecase{ticks: ticks}
}

// GetTicks は指定された銘柄のティックを取得します。範囲外の limit はデフォルト値になります。
func (u *ticksUsecase) GetTicks(ctx context.Context, symbol string, limit int) ([]entity.Tick, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return u.ticks.Find(ctx, strings.ToUpper(symbol), limit)
}
