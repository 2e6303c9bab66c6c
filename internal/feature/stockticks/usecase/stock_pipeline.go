// Package usecase は株価ティックのパイプラインとティック参照のユースケースを実装します。
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/frame"
	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/feature/stockticks/domain/entity"
	"finance_etl/internal/shared/ratelimiter"
)

const (
	// PipelineName identifies the stock pipeline in events and errors.
	PipelineName = "stock"
	// Table is the table ticks are loaded into.
	Table = "stock_ticks"

	pricePlaces = 4
)

// Buffer columns.
const (
	ColDate           = "date"
	ColSymbol         = "symbol"
	ColOpen           = "open"
	ColHigh           = "high"
	ColLow            = "low"
	ColClose          = "close"
	ColVolume         = "volume"
	ColShortDate      = pipeline.ColShortDate
	ColTimestamp      = pipeline.ColTimestamp
	ColPctReturnDelta = "pct_return_delta"
	ColPctVolumeDelta = "pct_volume_delta"
)

var priceCols = []string{ColOpen, ColHigh, ColLow, ColClose}

// QuoteRequest は1銘柄分の取得条件です。
type QuoteRequest struct {
	Symbol   string
	Interval string
	Exchange string
	Start    time.Time
}

// QuoteSource は外部APIから OHLCV データを取得するインターフェイスです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type QuoteSource interface {
	GetQuotes(ctx context.Context, req QuoteRequest) ([]entity.Quote, error)
}

// TickSink は stock_ticks テーブルのスキーマと挿入を担当します。
type TickSink interface {
	Setup(ctx context.Context, conn pipeline.Conn) error
	Insert(ctx context.Context, tx pipeline.Tx, ticks []entity.Tick) (int64, error)
}

// Params は株価パイプラインの設定です。
type Params struct {
	Symbols  []string `validate:"required,min=1,dive,required"`
	Interval string   `validate:"required,oneof=1min 5min 15min 30min 45min 1h 2h 4h 1day 1week 1month"`
	Exchange string
	Period   string `validate:"required,period"` // look-back window, e.g. 2Y
}

// StockPipeline は複数銘柄の OHLCV ティックを取り込みます。
type StockPipeline struct {
	quotes  QuoteSource
	sink    TickSink
	limiter ratelimiter.Limiter
	params  Params
	now     func() time.Time
}

var _ pipeline.Source = (*StockPipeline)(nil)

// NewStockPipeline はリクエストを送る前に params を検証します。
func NewStockPipeline(quotes QuoteSource, sink TickSink, limiter ratelimiter.Limiter, params Params) (*StockPipeline, error) {
	if err := pipeline.Validate(PipelineName, params); err != nil {
		return nil, err
	}
	if limiter == nil {
		limiter = ratelimiter.Unlimited{}
	}
	return &StockPipeline{quotes: quotes, sink: sink, limiter: limiter, params: params, now: time.Now}, nil
}

// ValidateSettings は銘柄以外の設定 (Interval, Period) を検証します。
// 銘柄の解決は DB を開くことがあるため、その前に呼び出します。
func ValidateSettings(params Params) error {
	return pipeline.ValidateExcept(PipelineName, params, "Symbols")
}

func (p *StockPipeline) Name() string  { return PipelineName }
func (p *StockPipeline) Table() string { return Table }

// Extract は銘柄ごとに順番にデータを取得し、行を連結します。
// APIのレートリミットを考慮して、リクエストごとに limiter で待機します。
func (p *StockPipeline) Extract(ctx context.Context) (frame.Buffer, error) {
	start, err := PeriodStart(p.now(), p.params.Period)
	if err != nil {
		return frame.Buffer{}, err
	}

	var out frame.Buffer
	for _, sym := range p.params.Symbols {
		if err := p.limiter.Wait(ctx); err != nil {
			return frame.Buffer{}, err
		}
		qs, err := p.quotes.GetQuotes(ctx, QuoteRequest{
			Symbol:   sym,
			Interval: p.params.Interval,
			Exchange: p.params.Exchange,
			Start:    start,
		})
		if err != nil {
			return frame.Buffer{}, &domain.SourceUnavailableError{Source: PipelineName, Key: sym, Err: err}
		}
		part, err := quotesFrame(sym, qs)
		if err != nil {
			return frame.Buffer{}, err
		}
		if out, err = out.Append(part); err != nil {
			return frame.Buffer{}, err
		}
	}
	return out, nil
}

func quotesFrame(symbol string, qs []entity.Quote) (frame.Buffer, error) {
	if len(qs) == 0 {
		return frame.Buffer{}, nil
	}
	n := len(qs)
	dates, syms := make([]string, n), make([]string, n)
	o, h, l, c, v := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, q := range qs {
		dates[i], syms[i] = q.Date, symbol
		o[i], h[i], l[i], c[i], v[i] = q.Open, q.High, q.Low, q.Close, q.Volume
	}
	return frame.New(
		frame.Strings(ColDate, dates),
		frame.Strings(ColSymbol, syms),
		frame.Floats(ColOpen, o),
		frame.Floats(ColHigh, h),
		frame.Floats(ColLow, l),
		frame.Floats(ColClose, c),
		frame.Floats(ColVolume, v),
	)
}

// Clean は日付の無い行を削除し、欠損値を列の平均値で補完したうえで、
// 価格を小数4桁に丸め、出来高を整数に変換します。
func (p *StockPipeline) Clean(buf frame.Buffer) (frame.Buffer, error) {
	if buf.Len() == 0 {
		return buf, nil
	}
	buf, err := buf.Where(ColDate, pipeline.Present)
	if err != nil {
		return frame.Buffer{}, err
	}
	if buf, err = buf.FillMean(append(priceCols, ColVolume)...); err != nil {
		return frame.Buffer{}, err
	}
	if buf, err = buf.Round(pricePlaces, priceCols...); err != nil {
		return frame.Buffer{}, err
	}
	return buf.ToInt(ColVolume)
}

// Transform は date を short_date と timestamp に置き換え、銘柄ごとに timestamp 順で
// 2つの変化率を計算します。
func (p *StockPipeline) Transform(buf frame.Buffer) (frame.Buffer, error) {
	if buf.Len() == 0 {
		return buf, nil
	}
	buf, err := pipeline.WithTimeColumns(buf, ColDate)
	if err != nil {
		return frame.Buffer{}, err
	}

	parts, err := buf.Split(ColSymbol)
	if err != nil {
		return frame.Buffer{}, err
	}
	var out frame.Buffer
	for _, part := range parts {
		if part, err = part.SortBy(ColTimestamp); err != nil {
			return frame.Buffer{}, err
		}
		if part, err = part.ShiftRatio(ColOpen, ColClose, ColPctReturnDelta); err != nil {
			return frame.Buffer{}, err
		}
		if part, err = part.Delta(ColVolume, ColPctVolumeDelta); err != nil {
			return frame.Buffer{}, err
		}
		if out, err = out.Append(part); err != nil {
			return frame.Buffer{}, err
		}
	}
	return out, nil
}

// SetupTable は (timestamp, symbol) のユニークインデックス付きで stock_ticks テーブルを作成します。
func (p *StockPipeline) SetupTable(ctx context.Context, conn pipeline.Conn) error {
	return p.sink.Setup(ctx, conn)
}

// InsertRows は変換済みバッファを挿入します。
func (p *StockPipeline) InsertRows(ctx context.Context, tx pipeline.Tx, buf frame.Buffer) (int64, error) {
	ticks, err := TicksFromBuffer(buf)
	if err != nil {
		return 0, err
	}
	return p.sink.Insert(ctx, tx, ticks)
}

// TicksFromBuffer は変換済みバッファの行を読み取ります。
func TicksFromBuffer(buf frame.Buffer) ([]entity.Tick, error) {
	if buf.Len() == 0 {
		return nil, nil
	}
	ts, err := buf.Ints(ColTimestamp)
	if err != nil {
		return nil, err
	}
	syms, err := buf.Strings(ColSymbol)
	if err != nil {
		return nil, err
	}
	dates, err := buf.Strings(ColShortDate)
	if err != nil {
		return nil, err
	}
	vol, err := buf.Ints(ColVolume)
	if err != nil {
		return nil, err
	}
	floats := map[string][]float64{}
	for _, c := range append(priceCols, ColPctReturnDelta, ColPctVolumeDelta) {
		if floats[c], err = buf.Floats(c); err != nil {
			return nil, err
		}
	}

	ticks := make([]entity.Tick, len(ts))
	for i := range ticks {
		ticks[i] = entity.Tick{
			Timestamp:      int64(ts[i]),
			Symbol:         syms[i],
			ShortDate:      dates[i],
			Open:           floats[ColOpen][i],
			High:           floats[ColHigh][i],
			Low:            floats[ColLow][i],
			Close:          floats[ColClose][i],
			Volume:         int64(vol[i]),
			PctReturnDelta: floats[ColPctReturnDelta][i],
			PctVolumeDelta: floats[ColPctVolumeDelta][i],
		}
	}
	return ticks, nil
}

// PeriodStart は 30D, 6W, 3M, 2Y のような期間指定が対象とする最初の日を返します。
func PeriodStart(now time.Time, period string) (time.Time, error) {
	if len(period) < 2 {
		return time.Time{}, fmt.Errorf("period %q: too short", period)
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("period %q: invalid count", period)
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period[len(period)-1] {
	case 'D':
		return day.AddDate(0, 0, -n), nil
	case 'W':
		return day.AddDate(0, 0, -7*n), nil
	case 'M':
		return day.AddDate(0, -n, 0), nil
	case 'Y':
		return day.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("period %q: unknown unit", period)
}
