package models

import "time"

// ReviewEntry: müşteri yorumu (0-5 puan)
type ReviewEntry struct {
	ID         uint `gorm:"primaryKey"`
	LocationID uint `gorm:"index;not null"`
	Location   Location
	Date       time.Time `gorm:"type:date;index;not null"`
	Rating     float64   `gorm:"not null"`
	Text       string    `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
