// Package usecase は為替パイプラインとレート参照のユースケースを実装します。
package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/frame"
	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/feature/forex/domain/entity"
)

const (
	// PipelineName identifies the forex pipeline in events and errors.
	PipelineName = "forex"
	// Table is the table rates are loaded into.
	Table = "forex"
	// Base is the currency every rate is quoted against.
	Base = "USD"

	// DefaultRetryDelay is the wait before the single retry of a daily fetch.
	DefaultRetryDelay = 5 * time.Second

	ratePlaces = 6
	dayLayout  = "2006-01-02"
)

// Buffer columns.
const (
	ColDate      = "date"
	ColBTC       = "usd_to_btc"
	ColEUR       = "usd_to_eur"
	ColGBP       = "usd_to_gbp"
	ColSEK       = "usd_to_sek"
	ColDKK       = "usd_to_dkk"
	ColShortDate = pipeline.ColShortDate
	ColTimestamp = pipeline.ColTimestamp

	deltaSuffix = "_delta"
)

// Currencies fetched from the rate source, in column order after BTC.
var Currencies = []string{"EUR", "GBP", "SEK", "DKK"}

var (
	currencyCols = map[string]string{"EUR": ColEUR, "GBP": ColGBP, "SEK": ColSEK, "DKK": ColDKK}
	rateCols     = []string{ColBTC, ColEUR, ColGBP, ColSEK, ColDKK}
)

// DeltaCol names the delta column of a rate column.
func DeltaCol(col string) string { return col + deltaSuffix }

// RateSource は基準通貨に対する1日分のレートを取得するインターフェイスです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type RateSource interface {
	GetRates(ctx context.Context, base string, day time.Time) (map[string]float64, error)
}

// IndexSource は期間内の日次指数価格を YYYY-MM-DD をキーに返します。
type IndexSource interface {
	GetDailyIndex(ctx context.Context, start, end time.Time) (map[string]float64, error)
}

// RateSink は forex テーブルのスキーマと挿入を担当します。
type RateSink interface {
	Setup(ctx context.Context, conn pipeline.Conn) error
	Insert(ctx context.Context, tx pipeline.Tx, rates []entity.Rate) (int64, error)
}

// Params は為替パイプラインの設定です。Start と End の両日を含みます。
type Params struct {
	Start      time.Time     `validate:"required"`
	End        time.Time     `validate:"required,gtefield=Start"`
	RetryDelay time.Duration `validate:"min=0"`
}

// ForexPipeline は日次の USD レートと BTC 指数を取り込みます。
type ForexPipeline struct {
	rates  RateSource
	index  IndexSource
	sink   RateSink
	params Params
	log    zerolog.Logger
}

var _ pipeline.Source = (*ForexPipeline)(nil)

// NewForexPipeline はリクエストを送る前に params を検証します。
func NewForexPipeline(rates RateSource, index IndexSource, sink RateSink, params Params, log zerolog.Logger) (*ForexPipeline, error) {
	if err := pipeline.Validate(PipelineName, params); err != nil {
		return nil, err
	}
	params.Start = truncateDay(params.Start)
	params.End = truncateDay(params.End)
	if params.RetryDelay == 0 {
		params.RetryDelay = DefaultRetryDelay
	}
	return &ForexPipeline{rates: rates, index: index, sink: sink, params: params, log: log}, nil
}

func (p *ForexPipeline) Name() string  { return PipelineName }
func (p *ForexPipeline) Table() string { return Table }

// Days は start から end までの日付を両端を含めて返します。
func Days(start, end time.Time) []time.Time {
	var out []time.Time
	for d := truncateDay(start); !d.After(truncateDay(end)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Extract は日ごとにレートを取得し (失敗した日は1回だけ再試行)、その後期間全体の BTC 指数を取得します。
// レスポンスに無い通貨は NaN のままにします。
func (p *ForexPipeline) Extract(ctx context.Context) (frame.Buffer, error) {
	days := Days(p.params.Start, p.params.End)

	dates := make([]string, len(days))
	cols := map[string][]float64{}
	for _, c := range rateCols {
		cols[c] = make([]float64, len(days))
	}

	for i, day := range days {
		key := day.Format(dayLayout)
		rates, err := pipeline.RetryOnce(ctx, p.params.RetryDelay,
			func(err error) {
				p.log.Warn().Err(err).Str("date", key).Dur("retry_in", p.params.RetryDelay).Msg("rate fetch failed, retrying")
			},
			func(ctx context.Context) (map[string]float64, error) {
				return p.rates.GetRates(ctx, Base, day)
			})
		if err != nil {
			return frame.Buffer{}, &domain.SourceUnavailableError{Source: PipelineName, Key: key, Err: err}
		}
		dates[i] = key
		for _, cur := range Currencies {
			v, ok := rates[cur]
			if !ok {
				v = math.NaN()
			}
			cols[currencyCols[cur]][i] = v
		}
	}

	index, err := p.index.GetDailyIndex(ctx, p.params.Start, p.params.End)
	if err != nil {
		return frame.Buffer{}, &domain.SourceUnavailableError{Source: PipelineName, Key: "btc index", Err: err}
	}
	for i, d := range dates {
		v, ok := index[d]
		if !ok {
			v = math.NaN()
		}
		cols[ColBTC][i] = v
	}

	return frame.New(
		frame.Strings(ColDate, dates),
		frame.Floats(ColBTC, cols[ColBTC]),
		frame.Floats(ColEUR, cols[ColEUR]),
		frame.Floats(ColGBP, cols[ColGBP]),
		frame.Floats(ColSEK, cols[ColSEK]),
		frame.Floats(ColDKK, cols[ColDKK]),
	)
}

// Clean は欠損したレートを列の平均値で補完し、小数6桁に丸めます。
func (p *ForexPipeline) Clean(buf frame.Buffer) (frame.Buffer, error) {
	if buf.Len() == 0 {
		return buf, nil
	}
	buf, err := buf.FillMean(rateCols...)
	if err != nil {
		return frame.Buffer{}, err
	}
	return buf.Round(ratePlaces, rateCols...)
}

// Transform は short_date と timestamp を追加し、日付順に並べて各レートの変化率を計算します。
func (p *ForexPipeline) Transform(buf frame.Buffer) (frame.Buffer, error) {
	if buf.Len() == 0 {
		return buf, nil
	}
	buf, err := pipeline.WithTimeColumns(buf, ColDate)
	if err != nil {
		return frame.Buffer{}, err
	}
	if buf, err = buf.SortBy(ColTimestamp); err != nil {
		return frame.Buffer{}, err
	}
	for _, c := range rateCols {
		if buf, err = buf.Delta(c, DeltaCol(c)); err != nil {
			return frame.Buffer{}, err
		}
	}
	return buf, nil
}

// SetupTable は short_date のユニークインデックス付きで forex テーブルを作成します。
func (p *ForexPipeline) SetupTable(ctx context.Context, conn pipeline.Conn) error {
	return p.sink.Setup(ctx, conn)
}

// InsertRows は変換済みバッファを挿入します。
func (p *ForexPipeline) InsertRows(ctx context.Context, tx pipeline.Tx, buf frame.Buffer) (int64, error) {
	rates, err := RatesFromBuffer(buf)
	if err != nil {
		return 0, err
	}
	return p.sink.Insert(ctx, tx, rates)
}

// RatesFromBuffer は変換済みバッファの行を読み取ります。
func RatesFromBuffer(buf frame.Buffer) ([]entity.Rate, error) {
	if buf.Len() == 0 {
		return nil, nil
	}
	dates, err := buf.Strings(ColShortDate)
	if err != nil {
		return nil, err
	}
	f := map[string][]float64{}
	for _, c := range rateCols {
		if f[c], err = buf.Floats(c); err != nil {
			return nil, err
		}
		if f[DeltaCol(c)], err = buf.Floats(DeltaCol(c)); err != nil {
			return nil, err
		}
	}
	out := make([]entity.Rate, len(dates))
	for i := range out {
		out[i] = entity.Rate{
			ShortDate:     dates[i],
			USDToBTC:      f[ColBTC][i],
			USDToEUR:      f[ColEUR][i],
			USDToGBP:      f[ColGBP][i],
			USDToSEK:      f[ColSEK][i],
			USDToDKK:      f[ColDKK][i],
			USDToBTCDelta: f[DeltaCol(ColBTC)][i],
			USDToEURDelta: f[DeltaCol(ColEUR)][i],
			USDToGBPDelta: f[DeltaCol(ColGBP)][i],
			USDToSEKDelta: f[DeltaCol(ColSEK)][i],
			USDToDKKDelta: f[DeltaCol(ColDKK)][i],
		}
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay は YYYY-MM-DD 形式の日付を読み込みます。
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q: %w", s, err)
	}
	return t, nil
}
