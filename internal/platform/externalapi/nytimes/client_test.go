package nytimes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance_etl/internal/platform/externalapi/apiclient"
)

func TestArchive_GetArchive(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2018/1.json", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api-key"))
		_, _ = w.Write([]byte(`{"response":{"docs":[
			{"pub_date":"2018-01-05T12:00:00+0000","snippet":"Stocks Rally","headline":{"main":"Markets Up"},"news_desk":"Business",
			 "keywords":[{"name":"organizations","value":"Apple Inc"},{"name":"subject","value":"Stocks"}]},
			{"pub_date":"2018-01-06T08:00:00+0000","snippet":"Score","headline":{"main":"Game Night"},"news_desk":"Sports","keywords":[]}
		]}}`))
	}))
	defer server.Close()

	archive := NewArchive(Config{APIKey: "key", BaseURL: server.URL}, server.Client())
	got, err := archive.GetArchive(context.Background(), 2018, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2018-01-05T12:00:00+0000", got[0].PubDate)
	assert.Equal(t, "Markets Up", got[0].Headline)
	assert.Equal(t, "Business", got[0].Desk)
	assert.Equal(t, []string{"Apple Inc", "Stocks"}, got[0].Keywords)
	assert.Equal(t, "Sports", got[1].Desk)
	assert.Empty(t, got[1].Keywords)
}

func TestArchive_GetArchive_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "broken body", status: http.StatusOK, body: `{"response":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewArchive(Config{BaseURL: server.URL}, server.Client()).GetArchive(context.Background(), 2018, 2)
			require.Error(t, err)
			if tt.status != http.StatusOK {
				var se *apiclient.StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.status, se.Code)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("NYTIMES_API_KEY", "k")
	t.Setenv("NYTIMES_BASE_URL", "")

	cfg := LoadConfig()
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}
