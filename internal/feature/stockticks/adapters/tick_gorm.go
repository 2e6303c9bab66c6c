// Package adapters はstockticksフィーチャーの永続化実装を提供します。
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
	"finance_etl/internal/feature/stockticks/domain/entity"
	"finance_etl/internal/feature/stockticks/usecase"
)

// TickModel は stock_ticks テーブルの行です。(timestamp, symbol) で一意になります。
type TickModel struct {
	ID        uint   `gorm:"primaryKey"`
	Timestamp int64  `gorm:"not null;uniqueIndex:idx_stocks,priority:1"`
	Symbol    string `gorm:"size:32;not null;uniqueIndex:idx_stocks,priority:2"`
	ShortDate datatypes.Date `gorm:"not null;index"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`

	PctReturnDelta float64 `gorm:"not null;default:0"`
	PctVolumeDelta float64 `gorm:"not null;default:0"`
}

func (TickModel) TableName() string {
	return usecase.Table
}

func toModel(e entity.Tick) (TickModel, error) {
	d, err := timenorm.ParseShortDate(e.ShortDate)
	if err != nil {
		return TickModel{}, fmt.Errorf("tick %s@%d: %w", e.Symbol, e.Timestamp, err)
	}
	return TickModel{
		Timestamp:      e.Timestamp,
		Symbol:         e.Symbol,
		ShortDate:      datatypes.Date(d),
		Open:           e.Open,
		High:           e.High,
		Low:            e.Low,
		Close:          e.Close,
		Volume:         e.Volume,
		PctReturnDelta: e.PctReturnDelta,
		PctVolumeDelta: e.PctVolumeDelta,
	}, nil
}

func toEntity(m TickModel) entity.Tick {
	return entity.Tick{
		Timestamp:      m.Timestamp,
		Symbol:         m.Symbol,
		ShortDate:      timenorm.ShortDate(time.Time(m.ShortDate)),
		Open:           m.Open,
		High:           m.High,
		Low:            m.Low,
		Close:          m.Close,
		Volume:         m.Volume,
		PctReturnDelta: m.PctReturnDelta,
		PctVolumeDelta: m.PctVolumeDelta,
	}
}

// tickSink はパイプラインのロード時にスキーマ作成と挿入を行います。
type tickSink struct{}

var _ usecase.TickSink = tickSink{}

// NewTickSink は stock_ticks 用の TickSink を返します。
func NewTickSink() usecase.TickSink {
	return tickSink{}
}

func (tickSink) Setup(ctx context.Context, conn pipeline.Conn) error {
	return conn.Migrate(ctx, &TickModel{})
}

// Insert は既存の (timestamp, symbol) を上書きせずに挿入します。
func (tickSink) Insert(ctx context.Context, tx pipeline.Tx, ticks []entity.Tick) (int64, error) {
	if len(ticks) == 0 {
		return 0, nil
	}
	ms := make([]TickModel, 0, len(ticks))
	for _, t := range ticks {
		m, err := toModel(t)
		if err != nil {
			return 0, err
		}
		ms = append(ms, m)
	}
	return tx.InsertIgnore(ctx, &ms, "timestamp", "symbol")
}

// tickRepository は stock_ticks の読み取り実装です。
type tickRepository struct {
	db *gorm.DB
}

var _ usecase.TickRepository = (*tickRepository)(nil)

// NewTickRepository は指定されたDB接続で読み取りリポジトリを生成します。
func NewTickRepository(db *gorm.DB) *tickRepository {
	return &tickRepository{db: db}
}

// Find は銘柄の新しい順に最大 limit 件のティックを返します。
func (r *tickRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.Tick, error) {
	var rows []TickModel
	q := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true})
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Tick, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}
