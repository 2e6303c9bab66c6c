// Command etl runs the stock, news and forex pipelines one after another.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"finance_etl/internal/app/di"
	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/platform/cache"
	"finance_etl/internal/platform/config"
	"finance_etl/internal/platform/db"
	"finance_etl/internal/platform/logger"
	"finance_etl/internal/platform/metrics"
	"finance_etl/internal/platform/redis"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml (optional)")
	sources := flag.String("sources", "", "comma separated sources to run: stock,news,forex (default all)")
	timeout := flag.Duration("timeout", 30*time.Minute, "upper bound for the whole run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	l, closer, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build logger")
	}
	defer func() { _ = closer.Close() }()

	selected, err := di.ParseSources(*sources)
	if err != nil {
		l.Fatal().Err(err).Msg("invalid -sources")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	failed := run(ctx, cfg, selected, l)
	if failed > 0 {
		l.Error().Int("failed", failed).Int("selected", len(selected)).Msg("etl finished with failures")
		cancel()
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
	l.Info().Strs("sources", selected).Msg("etl ok")
}

// run executes the selected sources sequentially and returns how many failed.
// A failing source does not stop the ones after it.
func run(ctx context.Context, cfg *config.Config, selected []string, l zerolog.Logger) int {
	var reporters []pipeline.Reporter
	var rec *metrics.Reporter
	if cfg.Metrics.Enabled {
		rec = metrics.New()
		reporters = append(reporters, rec)
	}
	runner := pipeline.NewRunner(db.NewGateway(cfg.DB), di.NewReporter(l, reporters...))

	failed := 0
	for _, name := range selected {
		if err := runSource(ctx, cfg, runner, name, l); err != nil {
			failed++
			logRunError(l, name, err)
		}
	}

	if rec != nil && cfg.Metrics.PushgatewayURL != "" {
		if err := rec.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			l.Warn().Err(err).Msg("metrics push failed")
		}
	}
	return failed
}

func runSource(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, name string, l zerolog.Logger) error {
	now := time.Now()
	switch name {
	case di.SourceStock:
		p, symbols, err := di.NewStockPipeline(ctx, cfg, di.NewSymbolResolver(cfg.DB), l)
		if err != nil {
			return err
		}
		if err := report(ctx, runner, p, l); err != nil {
			return err
		}
		invalidateTicks(ctx, cfg, symbols, l)
		return nil
	case di.SourceNews:
		p, err := di.NewNewsPipeline(cfg, now, l)
		if err != nil {
			return err
		}
		return report(ctx, runner, p, l)
	case di.SourceForex:
		p, err := di.NewForexPipeline(cfg, now, l)
		if err != nil {
			return err
		}
		return report(ctx, runner, p, l)
	}
	return fmt.Errorf("unknown source %q", name)
}

func report(ctx context.Context, runner *pipeline.Runner, src pipeline.Source, l zerolog.Logger) error {
	res, err := runner.Run(ctx, src)
	if err != nil {
		return err
	}
	l.Info().
		Str("run_id", res.RunID.String()).
		Str("source", res.Source).
		Str("table", res.Table).
		Int("extracted", res.Extracted).
		Int("rows", res.Rows).
		Int64("inserted", res.Load.Inserted).
		Bool("created_table", res.Load.CreatedTable).
		Dur("duration", res.Duration).
		Msg("source loaded")
	return nil
}

// invalidateTicks drops the cached tick queries of the loaded symbols. Cache trouble is
// logged and never fails the run.
func invalidateTicks(ctx context.Context, cfg *config.Config, symbols []string, l zerolog.Logger) {
	rdb, err := redis.NewRedisClient(ctx, cfg.Redis, l)
	if err != nil || rdb == nil {
		return
	}
	defer func() { _ = rdb.Close() }()
	if err := cache.InvalidateTicks(ctx, rdb, cfg.Cache.Namespace, symbols...); err != nil {
		l.Warn().Err(err).Msg("tick cache invalidation failed")
	}
}

func logRunError(l zerolog.Logger, name string, err error) {
	l.Error().Err(err).Str("source", name).Str("kind", errorKind(err)).Msg("source failed")
}

// errorKind names the category of a run failure for log filtering.
func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, domain.ErrFormat):
		return "format"
	case errors.Is(err, domain.ErrSchema):
		return "schema"
	default:
		return "other"
	}
}
