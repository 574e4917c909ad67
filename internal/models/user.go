package models

import "time"

type UserRole string

const (
	RoleSuperAdmin    UserRole = "super_admin"
	RoleLocationAdmin UserRole = "location_admin" // yalnızca kendi şubesinin verisini görür ve girer
)

// User: dashboard kullanıcısı. Şube admininin LocationID'si zorunludur.
type User struct {
	ID           uint  `gorm:"primaryKey"`
	LocationID   *uint `gorm:"index"`
	Location     *Location
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null;index"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
