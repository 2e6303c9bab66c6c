// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import (
	"os"
	"time"
)

// DefaultBaseURL is the public Twelve Data endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

// Config holds configuration for the Twelve Data API client.
type Config struct {
	TwelveDataAPIKey string        `yaml:"api_key"`                                      // API key for authentication
	BaseURL          string        `yaml:"base_url" default:"https://api.twelvedata.com"` // Base URL for the API
	Timeout          time.Duration `yaml:"timeout" default:"10s"`                        // HTTP request timeout
	OutputSize       int           `yaml:"output_size" default:"5000"`                   // rows requested per symbol
}

// LoadConfig loads Twelve Data configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		TwelveDataAPIKey: os.Getenv("TWELVE_DATA_API_KEY"),
		BaseURL:          os.Getenv("TWELVE_DATA_BASE_URL"),
		Timeout:          10 * time.Second,
		OutputSize:       5000,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg
}
