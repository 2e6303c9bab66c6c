// Package entity defines the domain models for the stock ticks feature.
package entity

// Quote is one OHLCV row as reported by the quote provider.
// Missing numbers are NaN; they are filled during cleaning.
type Quote struct {
	Date   string // provider timestamp, any layout the time normalizer accepts
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Tick is a cleaned and enriched quote, identified by (Timestamp, Symbol).
type Tick struct {
	Timestamp      int64  // epoch seconds
	Symbol         string // e.g. "AAPL"
	ShortDate      string // DD-MM-YYYY
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Volume         int64
	PctReturnDelta float64 // open / previous close - 1
	PctVolumeDelta float64 // volume / previous volume - 1
}
