package models

import "time"

// InventoryEntry: kategori bazlı günlük stok hareketi ve zayiat
type InventoryEntry struct {
	ID         uint `gorm:"primaryKey"`
	LocationID uint `gorm:"index;not null"`
	Location   Location
	Date       time.Time `gorm:"type:date;index;not null"`
	Category   string    `gorm:"size:20;not null"` // produce / protein / dairy / bakery / dry_goods / beverages
	Received   float64   `gorm:"not null"`         // gelen birim
	Used       float64   `gorm:"not null"`         // kullanılan birim
	Wasted     float64   `gorm:"not null"`         // zayi birim, gelen miktarı aşabilir
	WasteCost  float64   `gorm:"not null"`         // zayiat maliyeti
	Note       string    `gorm:"size:500"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
