package models

import (
	"time"
)

// User represents a platform account that can hold roles across services.
type User struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	ExternalID      string `gorm:"type:text;uniqueIndex;not null"`
	Email           string `gorm:"type:text;uniqueIndex;not null"`
	OtpKey          string `gorm:"type:text"`
	TelephoneNumber string `gorm:"type:text"`
	Disabled        bool   `gorm:"not null;default:false"`
	LoginCount      int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	ServiceRoles []ServiceRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// HasRoleForService reports whether the user holds any role in the given service.
func (u *User) HasRoleForService(serviceID uint) bool {
	for _, sr := range u.ServiceRoles {
		if sr.ServiceID == serviceID {
			return true
		}
	}
	return false
}
