// Package router wires the read API routes.
package router

import (
	"github.com/gin-gonic/gin"

	forexhandler "finance_etl/internal/feature/forex/transport/handler"
	newshandler "finance_etl/internal/feature/news/transport/handler"
	tickhandler "finance_etl/internal/feature/stockticks/transport/handler"
	symbollisthandler "finance_etl/internal/feature/symbollist/transport/handler"
	"finance_etl/internal/platform/http/handler"
)

// Handlers groups the feature handlers served by the API.
type Handlers struct {
	Symbols *symbollisthandler.SymbolHandler
	Ticks   *tickhandler.TicksHandler
	News    *newshandler.NewsHandler
	Forex   *forexhandler.ForexHandler

	// Ready checks dependencies for /readyz; nil skips the route.
	Ready gin.HandlerFunc
	// Metrics serves /metrics; nil skips the route.
	Metrics     gin.HandlerFunc
	MetricsPath string
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	if h.Ready != nil {
		r.GET("/readyz", h.Ready)
	}
	if h.Metrics != nil {
		path := h.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, h.Metrics)
	}

	// 読み取り専用API
	r.GET("/symbols", h.Symbols.List)
	r.GET("/ticks/:symbol", h.Ticks.GetTicks)
	r.GET("/news", h.News.GetNews)
	r.GET("/forex", h.Forex.GetRates)

	return r
}
