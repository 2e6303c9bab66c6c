package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance_etl/internal/feature/news/domain/entity"
	"finance_etl/internal/feature/news/usecase"
)

type mockArticleRepository struct {
	FindFunc  func(ctx context.Context, day *time.Time, limit int) ([]entity.StoredArticle, error)
	FindCalls int
}

func (m *mockArticleRepository) Find(ctx context.Context, day *time.Time, limit int) ([]entity.StoredArticle, error) {
	m.FindCalls++
	return m.FindFunc(ctx, day, limit)
}

func TestNewsUsecase_GetNews(t *testing.T) {
	t.Parallel()

	t.Run("日付指定", func(t *testing.T) {
		t.Parallel()
		repo := &mockArticleRepository{FindFunc: func(_ context.Context, day *time.Time, limit int) ([]entity.StoredArticle, error) {
			require.NotNil(t, day)
			assert.Equal(t, time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC), *day)
			assert.Equal(t, 10, limit)
			return []entity.StoredArticle{{Headline: "h"}}, nil
		}}
		got, err := usecase.NewNewsUsecase(repo).GetNews(context.Background(), "05-01-2018", 10)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("日付なしとデフォルト件数", func(t *testing.T) {
		t.Parallel()
		repo := &mockArticleRepository{FindFunc: func(_ context.Context, day *time.Time, limit int) ([]entity.StoredArticle, error) {
			assert.Nil(t, day)
			assert.Equal(t, usecase.DefaultLimit, limit)
			return nil, nil
		}}
		_, err := usecase.NewNewsUsecase(repo).GetNews(context.Background(), "", usecase.MaxLimit+1)
		require.NoError(t, err)
	})

	t.Run("不正な日付", func(t *testing.T) {
		t.Parallel()
		repo := &mockArticleRepository{}
		_, err := usecase.NewNewsUsecase(repo).GetNews(context.Background(), "2018-01-05", 10)
		assert.ErrorIs(t, err, usecase.ErrInvalidDate)
		assert.Zero(t, repo.FindCalls)
	})
}
