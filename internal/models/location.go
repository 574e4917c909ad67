package models

import "time"

// Location: şube referans verisi (analiz motoru yalnızca okur)
type Location struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"size:100;not null;unique"`
	City      string     `gorm:"size:100"`
	State     string     `gorm:"size:50"`
	Manager   string     `gorm:"size:100"` // şube müdürü
	Seats     int        `gorm:"not null"` // oturma kapasitesi
	OpenDate  *time.Time // açılış tarihi (opsiyonel)
	Active    bool       `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}
