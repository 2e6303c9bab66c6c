// Package coindesk provides a client for the Bitcoin price index history API.
package coindesk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"finance_etl/internal/feature/forex/usecase"
	"finance_etl/internal/platform/externalapi/apiclient"
)

const provider = "coindesk"

// DefaultBaseURL is the historical close endpoint of the index.
const DefaultBaseURL = "https://api.coindesk.com/v1/bpi/historical/close.json"

// Config holds configuration for the index client.
type Config struct {
	BaseURL string        `yaml:"base_url" default:"https://api.coindesk.com/v1/bpi/historical/close.json"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

// LoadConfig loads index configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{BaseURL: os.Getenv("COINDESK_BASE_URL"), Timeout: 10 * time.Second}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg
}

type historicalResponse struct {
	BPI map[string]float64 `json:"bpi"`
}

// Client is the IndexSource backed by the price index API.
type Client struct {
	cfg    Config
	client *http.Client
}

var _ usecase.IndexSource = (*Client)(nil)

// NewClient creates a Client.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// GetDailyIndex returns the USD close of each day between start and end, keyed by YYYY-MM-DD.
func (c *Client) GetDailyIndex(ctx context.Context, start, end time.Time) (map[string]float64, error) {
	q := url.Values{}
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	q.Set("currency", usecase.Base)
	u := fmt.Sprintf("%s?%s", c.cfg.BaseURL, q.Encode())

	var body historicalResponse
	if err := apiclient.GetJSON(ctx, c.client, provider, u, &body); err != nil {
		return nil, err
	}
	if body.BPI == nil {
		return map[string]float64{}, nil
	}
	return body.BPI, nil
}
