// Package handler はforexフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"finance_etl/internal/feature/forex/domain/entity"
	"finance_etl/internal/feature/forex/transport/http/dto"
	"finance_etl/internal/feature/forex/usecase"
)

// RatesUsecase はレート参照のユースケースインターフェースです。
type RatesUsecase interface {
	GetRates(ctx context.Context, from, to string) ([]entity.Rate, error)
}

// ForexHandler はレートのHTTPリクエストを処理します。
type ForexHandler struct {
	uc RatesUsecase
}

// NewForexHandler はForexHandlerの新しいインスタンスを生成します。
func NewForexHandler(uc RatesUsecase) *ForexHandler {
	return &ForexHandler{uc: uc}
}

// GetRates は日次レートをJSONで返します。
//
// エンドポイント例:
// GET /forex?from=2018-01-01&to=2018-01-15
func (h *ForexHandler) GetRates(c *gin.Context) {
	rates, err := h.uc.GetRates(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidRange) {
			status = http.StatusBadRequest
		}
		c.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.RateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, dto.RateResponse{
			Date: r.ShortDate,
			Rates: map[string]float64{
				"BTC": r.USDToBTC, "EUR": r.USDToEUR, "GBP": r.USDToGBP, "SEK": r.USDToSEK, "DKK": r.USDToDKK,
			},
			Deltas: map[string]float64{
				"BTC": r.USDToBTCDelta, "EUR": r.USDToEURDelta, "GBP": r.USDToGBPDelta, "SEK": r.USDToSEKDelta, "DKK": r.USDToDKKDelta,
			},
		})
	}
	c.JSON(http.StatusOK, out)
}
