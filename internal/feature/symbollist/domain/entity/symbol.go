// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol is a ticker the stock pipeline may load.
// Inactive rows are kept for history but never fetched.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:32;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Exchange  string    `gorm:"size:100;not null;default:''"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
