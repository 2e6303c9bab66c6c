package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"finance_etl/internal/feature/stockticks/domain/entity"
	"finance_etl/internal/feature/stockticks/transport/handler"
)

// mockTicksUsecase はTicksUsecaseインターフェースのモック実装です。
type mockTicksUsecase struct {
	GetTicksFunc func(ctx context.Context, symbol string, limit int) ([]entity.Tick, error)
}

func (m *mockTicksUsecase) GetTicks(ctx context.Context, symbol string, limit int) ([]entity.Tick, error) {
	return m.GetTicksFunc(ctx, symbol, limit)
}

func TestTicksHandler_GetTicks(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		url            string
		mockGetTicks   func(ctx context.Context, symbol string, limit int) ([]entity.Tick, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: limit specified",
			url:  "/ticks/AAPL?limit=1",
			mockGetTicks: func(_ context.Context, symbol string, limit int) ([]entity.Tick, error) {
				assert.Equal(t, "AAPL", symbol)
				assert.Equal(t, 1, limit)
				return []entity.Tick{{
					Timestamp: 1514851200, Symbol: "AAPL", ShortDate: "02-01-2018",
					Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
					PctReturnDelta: 0.1, PctVolumeDelta: -0.25,
				}}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"date":"02-01-2018","timestamp":1514851200,"open":100,"high":101,"low":99,"close":100.5,"volume":1000,"pct_return_delta":0.1,"pct_volume_delta":-0.25}]`,
		},
		{
			name: "success: default limit",
			url:  "/ticks/MSFT",
			mockGetTicks: func(_ context.Context, _ string, limit int) ([]entity.Tick, error) {
				assert.Equal(t, 200, limit)
				return nil, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "edge case: invalid limit is passed as zero",
			url:  "/ticks/MSFT?limit=abc",
			mockGetTicks: func(_ context.Context, _ string, limit int) ([]entity.Tick, error) {
				assert.Equal(t, 0, limit)
				return []entity.Tick{}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "error: usecase returns error",
			url:  "/ticks/AAPL",
			mockGetTicks: func(context.Context, string, int) ([]entity.Tick, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"db down"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewTicksHandler(&mockTicksUsecase{GetTicksFunc: tt.mockGetTicks})
			router := gin.New()
			router.GET("/ticks/:symbol", h.GetTicks)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
