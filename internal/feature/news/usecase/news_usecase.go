package usecase

import (
	"context"
	"errors"
	"time"

	"finance_etl/internal/etl/timenorm"
	"finance_etl/internal/feature/news/domain/entity"
)

const (
	// DefaultLimit は記事クエリのデフォルト返却件数です。
	DefaultLimit = 50
	// MaxLimit は記事の最大返却件数です。
	MaxLimit = 500
)

// ErrInvalidDate は日付が DD-MM-YYYY 形式でない場合に返されます。
var ErrInvalidDate = errors.New("date must be DD-MM-YYYY")

// ArticleRepository は記事の読み取りレイヤーを抽象化します。
type ArticleRepository interface {
	Find(ctx context.Context, day *time.Time, limit int) ([]entity.StoredArticle, error)
}

type newsUsecase struct {
	articles ArticleRepository
}

// NewNewsUsecase はnewsUsecaseの新しいインスタンスを生成します。
func NewNewsUsecase(articles ArticleRepository) *newsUsecase {
	return &newsUsecase{articles: articles}
}

// GetNews は date (DD-MM-YYYY) の記事を返します。date が空なら最新の記事を返します。
func (u *newsUsecase) GetNews(ctx context.Context, date string, limit int) ([]entity.StoredArticle, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	var day *time.Time
	if date != "" {
		d, err := timenorm.ParseShortDate(date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = &d
	}
	return u.articles.Find(ctx, day, limit)
}
