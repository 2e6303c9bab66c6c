package di

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

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/feature/symbollist/domain/entity"
	"finance_etl/internal/platform/config"
	"finance_etl/internal/platform/db"
)

func TestParseSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []string
		wantErr string
	}{
		{in: "", want: AllSources},
		{in: " , ", want: AllSources},
		{in: "forex", want: []string{"forex"}},
		{in: "News, stock", want: []string{"news", "stock"}},
		{in: "stock,weather", wantErr: `unknown source "weather"`},
		{in: "stock,stock", wantErr: `source "stock" selected twice`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSources(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewsParams(t *testing.T) {
	t.Parallel()

	now := time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC)

	p := NewsParams(config.NewsConfig{StartYear: 2018, StartMonth: 11}, now)
	assert.Equal(t, 2019, p.EndYear)
	assert.Equal(t, 3, p.EndMonth)

	p = NewsParams(config.NewsConfig{StartYear: 2018, StartMonth: 1, EndYear: 2018, EndMonth: 2}, now)
	assert.Equal(t, 2018, p.EndYear)
	assert.Equal(t, 2, p.EndMonth)
}

func TestForexParams(t *testing.T) {
	t.Parallel()

	now := time.Date(2018, 2, 10, 15, 4, 5, 0, time.UTC)
	day := func(m time.Month, d int) time.Time { return time.Date(2018, m, d, 0, 0, 0, 0, time.UTC) }

	p, err := ForexParams(config.ForexConfig{LookbackDays: 30, RetryDelay: time.Second}, now)
	require.NoError(t, err)
	assert.Equal(t, day(2, 10), p.End)
	assert.Equal(t, day(1, 11), p.Start)
	assert.Equal(t, time.Second, p.RetryDelay)

	p, err = ForexParams(config.ForexConfig{Start: "2018-01-01", End: "2018-01-15"}, now)
	require.NoError(t, err)
	assert.Equal(t, day(1, 1), p.Start)
	assert.Equal(t, day(1, 15), p.End)

	_, err = ForexParams(config.ForexConfig{Start: "01-01-2018", End: "2018/01/15"}, now)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "forex", verr.Pipeline)
	assert.Len(t, verr.Problems, 2)
}

type stubResolver struct {
	ResolveSymbolsFunc func(ctx context.Context, configured []string) ([]string, error)
	calls              int
}

func (s *stubResolver) ResolveSymbols(ctx context.Context, configured []string) ([]string, error) {
	s.calls++
	return s.ResolveSymbolsFunc(ctx, configured)
}

func TestNewStockPipeline_ValidatesBeforeResolving(t *testing.T) {
	t.Parallel()

	resolver := &stubResolver{ResolveSymbolsFunc: func(context.Context, []string) ([]string, error) {
		return []string{"AAPL"}, nil
	}}
	cfg := &config.Config{Stock: config.StockConfig{Interval: "1day", Period: "forever"}}

	_, _, err := NewStockPipeline(context.Background(), cfg, resolver, zerolog.Nop())
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "Period")
	assert.Zero(t, resolver.calls)
}

func TestNewStockPipeline_ResolvedSymbols(t *testing.T) {
	t.Parallel()

	resolver := &stubResolver{ResolveSymbolsFunc: func(_ context.Context, configured []string) ([]string, error) {
		assert.Equal(t, []string{"aapl"}, configured)
		return []string{"AAPL"}, nil
	}}
	cfg := &config.Config{Stock: config.StockConfig{Symbols: []string{"aapl"}, Interval: "1day", Period: "2Y", RequestsPerMinute: 8}}

	p, symbols, err := NewStockPipeline(context.Background(), cfg, resolver, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, []string{"AAPL"}, symbols)
	assert.Equal(t, 1, resolver.calls)
}

func TestNewSymbolResolver(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&entity.Symbol{}))
	require.NoError(t, gdb.Create(&[]entity.Symbol{
		{Code: "IBM", Name: "IBM", IsActive: true, SortKey: 2},
		{Code: "AAPL", Name: "Apple", IsActive: true, SortKey: 1},
	}).Error)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	r := NewSymbolResolver(db.Config{Driver: db.DriverSQLite, Path: path, Timeout: time.Second})

	got, err := r.ResolveSymbols(context.Background(), []string{"msft"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, got)

	got, err = r.ResolveSymbols(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "IBM"}, got)
}

type countingReporter struct{ n int }

func (c *countingReporter) Report(context.Context, pipeline.Event) { c.n++ }

func TestNewReporter(t *testing.T) {
	t.Parallel()

	c := &countingReporter{}
	r := NewReporter(zerolog.Nop(), c, nil)
	r.Report(context.Background(), pipeline.Event{Source: "stock", Stage: pipeline.StageExtract, Status: pipeline.StatusStarted})
	assert.Equal(t, 1, c.n)
}
