package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/feature/forex/domain/entity"
	"finance_etl/internal/feature/forex/usecase"
	"finance_etl/internal/platform/db"
)

type stubRates map[string]float64

func (s stubRates) GetRates(context.Context, string, time.Time) (map[string]float64, error) {
	return s, nil
}

type stubIndex map[string]float64

func (s stubIndex) GetDailyIndex(context.Context, time.Time, time.Time) (map[string]float64, error) {
	return s, nil
}

func setupTestDB(t *testing.T) (db.Config, *gorm.DB) {
	t.Helper()
	cfg := db.Config{Driver: db.DriverSQLite, Path: filepath.Join(t.TempDir(), "forex.db")}
	gdb, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return cfg, gdb
}

func runForex(t *testing.T, cfg db.Config, start, end time.Time) pipeline.Result {
	t.Helper()
	rates := stubRates{"EUR": 0.8, "GBP": 0.7, "SEK": 8, "DKK": 6}
	index := stubIndex{"2018-01-01": 10000, "2018-01-02": 11000, "2018-01-03": 12100}
	p, err := usecase.NewForexPipeline(rates, index, NewRateSink(), usecase.Params{Start: start, End: end, RetryDelay: time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	res, err := pipeline.NewRunner(db.NewGateway(cfg), nil).Run(context.Background(), p)
	require.NoError(t, err)
	return res
}

func TestForexLoad_Idempotent(t *testing.T) {
	t.Parallel()

	cfg, gdb := setupTestDB(t)
	d := func(n int) time.Time { return time.Date(2018, 1, n, 0, 0, 0, 0, time.UTC) }

	res := runForex(t, cfg, d(1), d(2))
	assert.True(t, res.Load.CreatedTable)
	assert.EqualValues(t, 2, res.Load.Inserted)
	assert.Equal(t, pipeline.StateLoaded, res.State)

	res = runForex(t, cfg, d(1), d(3))
	assert.False(t, res.Load.CreatedTable)
	assert.EqualValues(t, 1, res.Load.Inserted)

	var count int64
	require.NoError(t, gdb.Model(&RateModel{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	got, err := NewRateRepository(gdb).FindRange(context.Background(), d(2), d(3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "02-01-2018", got[0].ShortDate)
	assert.Equal(t, "03-01-2018", got[1].ShortDate)
	assert.InDelta(t, 0.1, got[1].USDToBTCDelta, 1e-9)
	assert.InDelta(t, 0.8, got[0].USDToEUR, 1e-9)
}

func TestRateSink_InvalidDate(t *testing.T) {
	t.Parallel()

	_, err := toModel(entityWithDate("2018-01-01"))
	require.Error(t, err)
}

func entityWithDate(s string) entity.Rate { return entity.Rate{ShortDate: s} }
