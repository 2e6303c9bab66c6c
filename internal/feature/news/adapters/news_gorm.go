// Package adapters はnewsフィーチャーの永続化実装を提供します。
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/etl/timenorm"
	"finance_etl/internal/feature/news/domain/entity"
	"finance_etl/internal/feature/news/usecase"
)

// ArticleModel は news テーブルの行です。(timestamp, headline) で一意になります。
type ArticleModel struct {
	ID        uint           `gorm:"primaryKey"`
	Timestamp int64          `gorm:"not null;uniqueIndex:idx_news,priority:1"`
	Headline  string         `gorm:"size:512;not null;uniqueIndex:idx_news,priority:2"`
	ShortDate datatypes.Date `gorm:"not null;index"`
	Snippet   string         `gorm:"type:text"`
	Keywords  datatypes.JSON `gorm:"column:keywords_json"`
}

func (ArticleModel) TableName() string {
	return usecase.Table
}

func toModel(a entity.StoredArticle) (ArticleModel, error) {
	d, err := timenorm.ParseShortDate(a.ShortDate)
	if err != nil {
		return ArticleModel{}, fmt.Errorf("article %q: %w", a.Headline, err)
	}
	kw := a.Keywords
	if kw == nil {
		kw = []string{}
	}
	raw, err := json.Marshal(kw)
	if err != nil {
		return ArticleModel{}, err
	}
	return ArticleModel{
		Timestamp: a.Timestamp,
		Headline:  a.Headline,
		ShortDate: datatypes.Date(d),
		Snippet:   a.Snippet,
		Keywords:  datatypes.JSON(raw),
	}, nil
}

func toEntity(m ArticleModel) (entity.StoredArticle, error) {
	var kw []string
	if len(m.Keywords) > 0 {
		if err := json.Unmarshal(m.Keywords, &kw); err != nil {
			return entity.StoredArticle{}, fmt.Errorf("article %d keywords: %w", m.ID, err)
		}
	}
	return entity.StoredArticle{
		Timestamp: m.Timestamp,
		ShortDate: timenorm.ShortDate(time.Time(m.ShortDate)),
		Snippet:   m.Snippet,
		Headline:  m.Headline,
		Keywords:  kw,
	}, nil
}

type articleSink struct{}

var _ usecase.ArticleSink = articleSink{}

// NewArticleSink は news 用の ArticleSink を返します。
func NewArticleSink() usecase.ArticleSink {
	return articleSink{}
}

func (articleSink) Setup(ctx context.Context, conn pipeline.Conn) error {
	return conn.Migrate(ctx, &ArticleModel{})
}

// Insert は既存の (timestamp, headline) を上書きせずに挿入します。
func (articleSink) Insert(ctx context.Context, tx pipeline.Tx, articles []entity.StoredArticle) (int64, error) {
	if len(articles) == 0 {
		return 0, nil
	}
	ms := make([]ArticleModel, 0, len(articles))
	for _, a := range articles {
		m, err := toModel(a)
		if err != nil {
			return 0, err
		}
		ms = append(ms, m)
	}
	return tx.InsertIgnore(ctx, &ms, "timestamp", "headline")
}

// articleRepository は news の読み取り実装です。
type articleRepository struct {
	db *gorm.DB
}

var _ usecase.ArticleRepository = (*articleRepository)(nil)

// NewArticleRepository は指定されたDB接続で読み取りリポジトリを生成します。
func NewArticleRepository(db *gorm.DB) *articleRepository {
	return &articleRepository{db: db}
}

// Find は新しい順に最大 limit 件の記事を返します。day が nil でなければその日の記事に絞ります。
func (r *articleRepository) Find(ctx context.Context, day *time.Time, limit int) ([]entity.StoredArticle, error) {
	var rows []ArticleModel
	q := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true})
	if day != nil {
		q = q.Where("short_date = ?", datatypes.Date(*day))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.StoredArticle, 0, len(rows))
	for _, m := range rows {
		a, err := toEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
