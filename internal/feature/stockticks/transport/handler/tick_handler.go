// Package handler はstockticksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"finance_etl/internal/feature/stockticks/domain/entity"
	"finance_etl/internal/feature/stockticks/transport/http/dto"
)

// TicksUsecase はティック参照のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type TicksUsecase interface {
	GetTicks(ctx context.Context, symbol string, limit int) ([]entity.Tick, error)
}

// TicksHandler はティックデータのHTTPリクエストを処理します。
type TicksHandler struct {
	uc TicksUsecase
}

// NewTicksHandler はTicksHandlerの新しいインスタンスを生成します。
func NewTicksHandler(uc TicksUsecase) *TicksHandler {
	return &TicksHandler{uc: uc}
}

// GetTicks は銘柄コードを受け取り、ティックデータをJSONで返します。
//
// エンドポイント例:
// GET /ticks/:symbol?limit=200
func (h *TicksHandler) GetTicks(c *gin.Context) {
	symbol := c.Param("symbol")
	// 不正な値は0になり、usecase側でデフォルト値に置き換えられる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(200)))

	ticks, err := h.uc.GetTicks(c.Request.Context(), symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.TickResponse, 0, len(ticks))
	for _, t := range ticks {
		out = append(out, dto.TickResponse{
			Date:           t.ShortDate,
			Timestamp:      t.Timestamp,
			Open:           t.Open,
			High:           t.High,
			Low:            t.Low,
			Close:          t.Close,
			Volume:         t.Volume,
			PctReturnDelta: t.PctReturnDelta,
			PctVolumeDelta: t.PctVolumeDelta,
		})
	}
	c.JSON(http.StatusOK, out)
}
