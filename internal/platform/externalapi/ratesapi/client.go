// Package ratesapi provides a client for a daily foreign exchange rates API.
package ratesapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"finance_etl/internal/feature/forex/usecase"
	"finance_etl/internal/platform/externalapi/apiclient"
)

const provider = "ratesapi"

// DefaultBaseURL is the root of the historical rates API.
const DefaultBaseURL = "https://api.exchangeratesapi.io"

// Config holds configuration for the rates client.
type Config struct {
	BaseURL string        `yaml:"base_url" default:"https://api.exchangeratesapi.io"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

// LoadConfig loads rates configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{BaseURL: os.Getenv("RATES_BASE_URL"), Timeout: 10 * time.Second}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client is the RateSource backed by the rates API.
type Client struct {
	cfg     Config
	client  *http.Client
	symbols []string
}

var _ usecase.RateSource = (*Client)(nil)

// NewClient creates a Client that asks for the forex currencies.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client, symbols: usecase.Currencies}
}

// GetRates returns the rates of day against base.
func (c *Client) GetRates(ctx context.Context, base string, day time.Time) (map[string]float64, error) {
	q := url.Values{}
	q.Set("base", base)
	q.Set("symbols", strings.Join(c.symbols, ","))
	u := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), day.Format("2006-01-02"), q.Encode())

	var body ratesResponse
	if err := apiclient.GetJSON(ctx, c.client, provider, u, &body); err != nil {
		return nil, err
	}
	if body.Rates == nil {
		return map[string]float64{}, nil
	}
	return body.Rates, nil
}
