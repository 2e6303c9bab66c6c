package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/pipeline"
	forexadapters "finance_etl/internal/feature/forex/adapters"
	forexusecase "finance_etl/internal/feature/forex/usecase"
	newsadapters "finance_etl/internal/feature/news/adapters"
	newsusecase "finance_etl/internal/feature/news/usecase"
	stockadapters "finance_etl/internal/feature/stockticks/adapters"
	stockusecase "finance_etl/internal/feature/stockticks/usecase"
	"finance_etl/internal/platform/config"
	"finance_etl/internal/shared/ratelimiter"
)

// Source names accepted by the ETL driver, in their default run order.
const (
	SourceStock = stockusecase.PipelineName
	SourceNews  = newsusecase.PipelineName
	SourceForex = forexusecase.PipelineName
)

// AllSources is the default selection of the driver.
var AllSources = []string{SourceStock, SourceNews, SourceForex}

// SymbolResolver decides which tickers a stock run loads.
type SymbolResolver interface {
	ResolveSymbols(ctx context.Context, configured []string) ([]string, error)
}

// ParseSources splits a comma separated selection and rejects unknown or repeated names.
func ParseSources(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return AllSources, nil
	}
	known := map[string]bool{SourceStock: true, SourceNews: true, SourceForex: true}
	seen := map[string]bool{}
	var out []string
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown source %q (want one of %s)", name, strings.Join(AllSources, ", "))
		}
		if seen[name] {
			return nil, fmt.Errorf("source %q selected twice", name)
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return AllSources, nil
	}
	return out, nil
}

// NewStockPipeline builds the stock pipeline for the resolved symbols and returns them
// so the caller can invalidate their cached ticks after a load.
func NewStockPipeline(ctx context.Context, cfg *config.Config, symbols SymbolResolver, log zerolog.Logger) (*stockusecase.StockPipeline, []string, error) {
	params := stockusecase.Params{
		Interval: cfg.Stock.Interval,
		Exchange: cfg.Stock.Exchange,
		Period:   cfg.Stock.Period,
	}
	if err := stockusecase.ValidateSettings(params); err != nil {
		return nil, nil, err
	}
	codes, err := symbols.ResolveSymbols(ctx, cfg.Stock.Symbols)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve symbols: %w", err)
	}
	params.Symbols = codes
	limiter := ratelimiter.NewRateLimiter(cfg.Stock.RequestsPerMinute, time.Minute, log.With().Str("provider", "twelvedata").Logger())
	p, err := stockusecase.NewStockPipeline(NewMarket(cfg.TwelveData), stockadapters.NewTickSink(), limiter, params)
	if err != nil {
		return nil, nil, err
	}
	return p, codes, nil
}

// NewsParams fills an unset end month with the month of now.
func NewsParams(cfg config.NewsConfig, now time.Time) newsusecase.Params {
	p := newsusecase.Params{
		StartYear:  cfg.StartYear,
		StartMonth: cfg.StartMonth,
		EndYear:    cfg.EndYear,
		EndMonth:   cfg.EndMonth,
		Desks:      cfg.Desks,
	}
	if p.EndYear == 0 || p.EndMonth == 0 {
		p.EndYear, p.EndMonth = now.Year(), int(now.Month())
	}
	return p
}

// NewNewsPipeline builds the news pipeline.
func NewNewsPipeline(cfg *config.Config, now time.Time, log zerolog.Logger) (*newsusecase.NewsPipeline, error) {
	limiter := ratelimiter.NewRateLimiter(cfg.News.RequestsPerMinute, time.Minute, log.With().Str("provider", "nytimes").Logger())
	return newsusecase.NewNewsPipeline(NewArchive(cfg.NYTimes), newsadapters.NewArticleSink(), limiter, NewsParams(cfg.News, now))
}

// ForexParams reads the configured days. An empty end is today and an empty start is
// LookbackDays before the end. Malformed days are reported together as one
// *domain.ValidationError.
func ForexParams(cfg config.ForexConfig, now time.Time) (forexusecase.Params, error) {
	y, m, d := now.UTC().Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	var problems []string
	if cfg.End != "" {
		t, err := forexusecase.ParseDay(cfg.End)
		if err != nil {
			problems = append(problems, fmt.Sprintf("End must be YYYY-MM-DD, got %q", cfg.End))
		} else {
			end = t
		}
	}
	start := end.AddDate(0, 0, -cfg.LookbackDays)
	if cfg.Start != "" {
		t, err := forexusecase.ParseDay(cfg.Start)
		if err != nil {
			problems = append(problems, fmt.Sprintf("Start must be YYYY-MM-DD, got %q", cfg.Start))
		} else {
			start = t
		}
	}
	if len(problems) > 0 {
		return forexusecase.Params{}, &domain.ValidationError{Pipeline: forexusecase.PipelineName, Problems: problems}
	}
	return forexusecase.Params{Start: start, End: end, RetryDelay: cfg.RetryDelay}, nil
}

// NewForexPipeline builds the forex pipeline.
func NewForexPipeline(cfg *config.Config, now time.Time, log zerolog.Logger) (*forexusecase.ForexPipeline, error) {
	params, err := ForexParams(cfg.Forex, now)
	if err != nil {
		return nil, err
	}
	return forexusecase.NewForexPipeline(NewRates(cfg.Rates), NewIndex(cfg.Coindesk), forexadapters.NewRateSink(), params,
		log.With().Str("source", forexusecase.PipelineName).Logger())
}

// NewReporter sends stage events to the log and, when given, to the metrics reporter.
func NewReporter(log zerolog.Logger, extra ...pipeline.Reporter) pipeline.Reporter {
	rs := pipeline.Reporters{pipeline.NewLogReporter(log)}
	for _, r := range extra {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return rs
}
