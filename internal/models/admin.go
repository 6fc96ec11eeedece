package models

import "time"

// AdminAuth holds the bcrypt hash of the single admin password. The most
// recently updated row wins.
type AdminAuth struct {
	ID           uint      `gorm:"primaryKey"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AdminAuth) TableName() string {
	return "admin_auth"
}
