// Package dto defines the HTTP payloads of the forex feature.
package dto

// RateResponse は日次レートのレスポンスDTOです。
type RateResponse struct {
	Date   string             `json:"date"` // DD-MM-YYYY
	Rates  map[string]float64 `json:"rates"`
	Deltas map[string]float64 `json:"deltas"`
}

// ErrorResponse はエラーレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
