// Package di provides dependency injection factories for creating application components.
package di

import (
	"finance_etl/internal/platform/externalapi/coindesk"
	"finance_etl/internal/platform/externalapi/nytimes"
	"finance_etl/internal/platform/externalapi/ratesapi"
	"finance_etl/internal/platform/externalapi/twelvedata"
	infrahttp "finance_etl/internal/platform/http"
)

// NewMarket creates a fully configured TwelveDataMarket with HTTP client.
func NewMarket(cfg twelvedata.Config) *twelvedata.TwelveDataMarket {
	return twelvedata.NewTwelveDataMarket(cfg, infrahttp.NewHTTPClient(cfg.Timeout))
}

// NewArchive creates the news archive client.
func NewArchive(cfg nytimes.Config) *nytimes.Archive {
	return nytimes.NewArchive(cfg, infrahttp.NewHTTPClient(cfg.Timeout))
}

// NewRates creates the daily exchange rate client.
func NewRates(cfg ratesapi.Config) *ratesapi.Client {
	return ratesapi.NewClient(cfg, infrahttp.NewHTTPClient(cfg.Timeout))
}

// NewIndex creates the Bitcoin price index client.
func NewIndex(cfg coindesk.Config) *coindesk.Client {
	return coindesk.NewClient(cfg, infrahttp.NewHTTPClient(cfg.Timeout))
}
