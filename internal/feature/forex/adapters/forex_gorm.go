// Package adapters はforexフィーチャーの永続化実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/etl/timenorm"
	"finance_etl/internal/feature/forex/domain/entity"
	"finance_etl/internal/feature/forex/usecase"
)

// RateModel は forex テーブルの行です。1日1行で short_date が一意になります。
type RateModel struct {
	ID        uint           `gorm:"primaryKey"`
	ShortDate datatypes.Date `gorm:"not null;uniqueIndex:idx_forex"`

	USDToBTC float64 `gorm:"column:usd_to_btc"`
	USDToEUR float64 `gorm:"column:usd_to_eur"`
	USDToGBP float64 `gorm:"column:usd_to_gbp"`
	USDToSEK float64 `gorm:"column:usd_to_sek"`
	USDToDKK float64 `gorm:"column:usd_to_dkk"`

	USDToBTCDelta float64 `gorm:"column:usd_to_btc_delta"`
	USDToEURDelta float64 `gorm:"column:usd_to_eur_delta"`
	USDToGBPDelta float64 `gorm:"column:usd_to_gbp_delta"`
	USDToSEKDelta float64 `gorm:"column:usd_to_sek_delta"`
	USDToDKKDelta float64 `gorm:"column:usd_to_dkk_delta"`
}

func (RateModel) TableName() string {
	return usecase.Table
}

func toModel(r entity.Rate) (RateModel, error) {
	d, err := timenorm.ParseShortDate(r.ShortDate)
	if err != nil {
		return RateModel{}, fmt.Errorf("rate: %w", err)
	}
	return RateModel{
		ShortDate:     datatypes.Date(d),
		USDToBTC:      r.USDToBTC,
		USDToEUR:      r.USDToEUR,
		USDToGBP:      r.USDToGBP,
		USDToSEK:      r.USDToSEK,
		USDToDKK:      r.USDToDKK,
		USDToBTCDelta: r.USDToBTCDelta,
		USDToEURDelta: r.USDToEURDelta,
		USDToGBPDelta: r.USDToGBPDelta,
		USDToSEKDelta: r.USDToSEKDelta,
		USDToDKKDelta: r.USDToDKKDelta,
	}, nil
}

func toEntity(m RateModel) entity.Rate {
	return entity.Rate{
		ShortDate:     timenorm.ShortDate(time.Time(m.ShortDate)),
		USDToBTC:      m.USDToBTC,
		USDToEUR:      m.USDToEUR,
		USDToGBP:      m.USDToGBP,
		USDToSEK:      m.USDToSEK,
		USDToDKK:      m.USDToDKK,
		USDToBTCDelta: m.USDToBTCDelta,
		USDToEURDelta: m.USDToEURDelta,
		USDToGBPDelta: m.USDToGBPDelta,
		USDToSEKDelta: m.USDToSEKDelta,
		USDToDKKDelta: m.USDToDKKDelta,
	}
}

type rateSink struct{}

var _ usecase.RateSink = rateSink{}

// NewRateSink は forex 用の RateSink を返します。
func NewRateSink() usecase.RateSink {
	return rateSink{}
}

func (rateSink) Setup(ctx context.Context, conn pipeline.Conn) error {
	return conn.Migrate(ctx, &RateModel{})
}

// Insert は既存の日付を上書きせずに挿入します。
func (rateSink) Insert(ctx context.Context, tx pipeline.Tx, rates []entity.Rate) (int64, error) {
	if len(rates) == 0 {
		return 0, nil
	}
	ms := make([]RateModel, 0, len(rates))
	for _, r := range rates {
		m, err := toModel(r)
		if err != nil {
			return 0, err
		}
		ms = append(ms, m)
	}
	return tx.InsertIgnore(ctx, &ms, "short_date")
}

// rateRepository は forex の読み取り実装です。
type rateRepository struct {
	db *gorm.DB
}

var _ usecase.RateRepository = (*rateRepository)(nil)

// NewRateRepository は指定されたDB接続で読み取りリポジトリを生成します。
func NewRateRepository(db *gorm.DB) *rateRepository {
	return &rateRepository{db: db}
}

// FindRange は from から to まで (両端を含む) の日次レートを日付順に返します。
func (r *rateRepository) FindRange(ctx context.Context, from, to time.Time) ([]entity.Rate, error) {
	var rows []RateModel
	if err := r.db.WithContext(ctx).
		Where("short_date >= ? AND short_date <= ?", datatypes.Date(from), datatypes.Date(to)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "short_date"}}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Rate, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}
