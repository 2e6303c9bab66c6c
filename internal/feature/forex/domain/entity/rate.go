// Package entity defines the domain models for the forex feature.
package entity

// Rate is one day of USD exchange rates, identified by ShortDate.
type Rate struct {
	ShortDate string // DD-MM-YYYY
	USDToBTC  float64
	USDToEUR  float64
	USDToGBP  float64
	USDToSEK  float64
	USDToDKK  float64

	USDToBTCDelta float64
	USDToEURDelta float64
	USDToGBPDelta float64
	USDToSEKDelta float64
	USDToDKKDelta float64
}
