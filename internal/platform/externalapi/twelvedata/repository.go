package twelvedata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"finance_etl/internal/feature/stockticks/domain/entity"
	"finance_etl/internal/feature/stockticks/usecase"
	"finance_etl/internal/platform/externalapi/apiclient"
	"finance_etl/internal/platform/externalapi/twelvedata/dto"
)

const provider = "twelvedata"

// TwelveDataMarket はTwelve Data外部APIから株価データを取得するQuoteSource実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// TwelveDataMarketがQuoteSourceを実装していることをコンパイル時に検証します。
var _ usecase.QuoteSource = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg, client: client}
}

// GetQuotes はTwelve Data APIから req.Start 以降の時系列株価データを取得します。
// 値が空の項目は NaN として返し、クリーニング段階で補完されます。
func (t *TwelveDataMarket) GetQuotes(ctx context.Context, req usecase.QuoteRequest) ([]entity.Quote, error) {
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("interval", req.Interval)
	if req.Exchange != "" {
		q.Set("exchange", req.Exchange)
	}
	if !req.Start.IsZero() {
		q.Set("start_date", req.Start.Format("2006-01-02"))
	}
	if t.cfg.OutputSize > 0 {
		q.Set("outputsize", strconv.Itoa(t.cfg.OutputSize))
	}
	q.Set("apikey", t.cfg.TwelveDataAPIKey)

	u := fmt.Sprintf("%s/time_series?%s", t.cfg.BaseURL, q.Encode())

	var body dto.TimeSeriesResponse
	if err := apiclient.GetJSON(ctx, t.client, provider, u, &body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("twelvedata: %s (code %d)", body.Message, body.Code)
	}

	quotes := make([]entity.Quote, 0, len(body.Values))
	for _, v := range body.Values {
		o, err := parseNumber(v.Open)
		if err != nil {
			return nil, fmt.Errorf("parse open %q: %w", v.Open, err)
		}
		h, err := parseNumber(v.High)
		if err != nil {
			return nil, fmt.Errorf("parse high %q: %w", v.High, err)
		}
		l, err := parseNumber(v.Low)
		if err != nil {
			return nil, fmt.Errorf("parse low %q: %w", v.Low, err)
		}
		c, err := parseNumber(v.Close)
		if err != nil {
			return nil, fmt.Errorf("parse close %q: %w", v.Close, err)
		}
		vol, err := parseNumber(v.Volume)
		if err != nil {
			return nil, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}

		quotes = append(quotes, entity.Quote{
			Date:   v.Datetime,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: vol,
		})
	}
	return quotes, nil
}

// parseNumber は空文字を欠損値 (NaN) として扱います。
func parseNumber(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
