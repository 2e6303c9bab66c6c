package ratesapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance_etl/internal/platform/externalapi/apiclient"
)

func TestClient_GetRates(t *testing.T) {
	t.Parallel()

	t.Run("正常系: 日付とクエリを組み立ててレートを返す", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/2018-01-02", r.URL.Path)
			assert.Equal(t, "USD", r.URL.Query().Get("base"))
			assert.Equal(t, "EUR,GBP,SEK,DKK", r.URL.Query().Get("symbols"))
			_, _ = w.Write([]byte(`{"base":"USD","date":"2018-01-02","rates":{"EUR":0.83,"GBP":0.74}}`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL + "/"}, srv.Client())
		got, err := c.GetRates(context.Background(), "USD", time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"EUR": 0.83, "GBP": 0.74}, got)
	})

	t.Run("異常系: 5xxはStatusError", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL}, srv.Client())
		_, err := c.GetRates(context.Background(), "USD", time.Now())
		var se *apiclient.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadGateway, se.Code)
	})

	t.Run("rates欠落は空マップ", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"base":"USD"}`))
		}))
		defer srv.Close()

		got, err := NewClient(Config{BaseURL: srv.URL}, srv.Client()).GetRates(context.Background(), "USD", time.Now())
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
