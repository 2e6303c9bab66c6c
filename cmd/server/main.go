// Command server serves the loaded tables over a read-only HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"finance_etl/internal/app/router"
	forexadapters "finance_etl/internal/feature/forex/adapters"
	forexhandler "finance_etl/internal/feature/forex/transport/handler"
	forexusecase "finance_etl/internal/feature/forex/usecase"
	newsadapters "finance_etl/internal/feature/news/adapters"
	newshandler "finance_etl/internal/feature/news/transport/handler"
	newsusecase "finance_etl/internal/feature/news/usecase"
	tickadapters "finance_etl/internal/feature/stockticks/adapters"
	tickhandler "finance_etl/internal/feature/stockticks/transport/handler"
	tickusecase "finance_etl/internal/feature/stockticks/usecase"
	symbollistadapters "finance_etl/internal/feature/symbollist/adapters"
	symbollisthandler "finance_etl/internal/feature/symbollist/transport/handler"
	symbollistusecase "finance_etl/internal/feature/symbollist/usecase"
	"finance_etl/internal/platform/cache"
	"finance_etl/internal/platform/config"
	"finance_etl/internal/platform/db"
	"finance_etl/internal/platform/http/handler"
	"finance_etl/internal/platform/logger"
	"finance_etl/internal/platform/metrics"
	infraredis "finance_etl/internal/platform/redis"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml (optional)")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	gdb, err := db.Open(cfg.DB)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect database")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		l.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	defer func() { _ = sqlDB.Close() }()

	// Redis (なくても動作する)
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, l)
	if err != nil {
		l.Warn().Err(err).Msg("redis unavailable, running without cache")
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				l.Error().Err(err).Msg("failed to close redis client")
			}
		}()
	}

	loc, err := time.LoadLocation(cfg.Cache.Location)
	if err != nil {
		l.Warn().Err(err).Str("location", cfg.Cache.Location).Msg("unknown cache location, using UTC")
		loc = time.UTC
	}

	// Repository
	symbolRepo := symbollistadapters.NewSymbolRepository(gdb)
	tickRepo := cache.NewCachingTickRepository(rdb, cache.UntilNextRun(cfg.Cache.RefreshHour, loc),
		tickadapters.NewTickRepository(gdb), cfg.Cache.Namespace)
	articleRepo := newsadapters.NewArticleRepository(gdb)
	rateRepo := forexadapters.NewRateRepository(gdb)

	// Handler
	h := router.Handlers{
		Symbols: symbollisthandler.NewSymbolHandler(symbollistusecase.NewSymbolUsecase(symbolRepo)),
		Ticks:   tickhandler.NewTicksHandler(tickusecase.NewTicksUsecase(tickRepo)),
		News:    newshandler.NewNewsHandler(newsusecase.NewNewsUsecase(articleRepo)),
		Forex:   forexhandler.NewForexHandler(forexusecase.NewRatesUsecase(rateRepo)),
	}
	checks := map[string]handler.Check{"db": sqlDB.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	h.Ready = handler.Ready(checks)
	if cfg.Metrics.Enabled {
		h.Metrics = metrics.New().GinHandler()
		h.MetricsPath = cfg.Metrics.Path
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.NewRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("graceful shutdown failed")
	}
}
