// Package handler はnewsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"finance_etl/internal/feature/news/domain/entity"
	"finance_etl/internal/feature/news/transport/http/dto"
	"finance_etl/internal/feature/news/usecase"
)

// NewsUsecase は記事参照のユースケースインターフェースです。
type NewsUsecase interface {
	GetNews(ctx context.Context, date string, limit int) ([]entity.StoredArticle, error)
}

// NewsHandler は記事のHTTPリクエストを処理します。
type NewsHandler struct {
	uc NewsUsecase
}

// NewNewsHandler はNewsHandlerの新しいインスタンスを生成します。
func NewNewsHandler(uc NewsUsecase) *NewsHandler {
	return &NewsHandler{uc: uc}
}

// GetNews は記事一覧をJSONで返します。
//
// エンドポイント例:
// GET /news?date=05-01-2018&limit=20
func (h *NewsHandler) GetNews(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	articles, err := h.uc.GetNews(c.Request.Context(), c.Query("date"), limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidDate) {
			status = http.StatusBadRequest
		}
		c.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.ArticleResponse, 0, len(articles))
	for _, a := range articles {
		kw := a.Keywords
		if kw == nil {
			kw = []string{}
		}
		out = append(out, dto.ArticleResponse{
			Date:      a.ShortDate,
			Timestamp: a.Timestamp,
			Headline:  a.Headline,
			Snippet:   a.Snippet,
			Keywords:  kw,
		})
	}
	c.JSON(http.StatusOK, out)
}
