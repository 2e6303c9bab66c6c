package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finance_etl/internal/feature/symbollist/domain/entity"
	"finance_etl/internal/feature/symbollist/transport/http/dto"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は ETL 対象の銘柄を返します。?exchange= を指定すると取引所で絞り込みます (大文字小文字は区別しない)。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	exchange := strings.TrimSpace(c.Query("exchange"))
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		if exchange != "" && !strings.EqualFold(s.Exchange, exchange) {
			continue
		}
		out = append(out, dto.SymbolItem{Code: s.Code, Name: s.Name, Exchange: s.Exchange})
	}
	c.JSON(http.StatusOK, out)
}
