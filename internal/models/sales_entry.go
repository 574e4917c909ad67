package models

import "time"

// SalesEntry: şube/gün/kanal başına satış özeti
type SalesEntry struct {
	ID         uint `gorm:"primaryKey"`
	LocationID uint `gorm:"index;not null"`
	Location   Location
	Date       time.Time `gorm:"type:date;index;not null"` // gün bazlı
	OrderType  string    `gorm:"size:20;not null"`         // dine_in / takeout / delivery / catering
	Revenue    float64   `gorm:"not null"`                 // ciro
	Orders     int       `gorm:"not null"`                 // sipariş adedi
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
