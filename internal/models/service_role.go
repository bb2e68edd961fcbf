package models

import "time"

// ServiceRole ties a user to a role within a single service.
type ServiceRole struct {
	UserID    uint `gorm:"primaryKey"`
	ServiceID uint `gorm:"primaryKey"`
	RoleID    uint `gorm:"not null"`
	CreatedAt time.Time

	Service Service `gorm:"constraint:OnDelete:CASCADE;foreignKey:ServiceID;references:ID"`
	Role    Role    `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoleID;references:ID"`
}
