// Package dto defines the HTTP payloads of the stockticks feature.
package dto

// TickResponse はティックデータのレスポンスDTOです。
type TickResponse struct {
	Date           string  `json:"date"`      // DD-MM-YYYY
	Timestamp      int64   `json:"timestamp"` // epoch seconds
	Open           float64 `json:"open"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Close          float64 `json:"close"`
	Volume         int64   `json:"volume"`
	PctReturnDelta float64 `json:"pct_return_delta"`
	PctVolumeDelta float64 `json:"pct_volume_delta"`
}

// ErrorResponse はエラーレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
