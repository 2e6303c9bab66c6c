// Package dto は Twelve Data の time_series レスポンスを表します。
package dto

// TimeSeriesMeta はレスポンスの meta ブロックです。
type TimeSeriesMeta struct {
	Symbol           string `json:"symbol"`
	Interval         string `json:"interval"`
	Currency         string `json:"currency"`
	ExchangeTimezone string `json:"exchange_timezone"`
	Exchange         string `json:"exchange"`
}

// TimeSeriesValue は1本分の足です。数値は文字列で返され、欠損時は空文字になります。
type TimeSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// TimeSeriesResponse は status が "error" の場合 Code と Message のみを持ちます。
type TimeSeriesResponse struct {
	Status  string            `json:"status"`
	Code    int               `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Meta    TimeSeriesMeta    `json:"meta"`
	Values  []TimeSeriesValue `json:"values"`
}
