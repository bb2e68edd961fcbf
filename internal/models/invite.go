package models

import "time"

// Invite kinds. A service invite founds a brand-new service on acceptance; a
// user invite grants a role in an already-existing service.
const (
	InviteKindService = "service"
	InviteKindUser    = "user"
)

// Invite captures a pending or resolved invitation. Records are never deleted;
// they are disabled on acceptance, revocation, or when superseded.
type Invite struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	Code            string `gorm:"type:text;uniqueIndex;not null"`
	Email           string `gorm:"type:text;index;not null"`
	OtpKey          string `gorm:"type:text;not null"`
	TelephoneNumber string `gorm:"type:text"`
	RoleID          uint   `gorm:"not null"`
	Kind            string `gorm:"type:text;not null"`
	Disabled        bool   `gorm:"not null;default:false"`
	ExpiresAt       time.Time `gorm:"not null"`
	SenderID        *uint     `gorm:"index"`
	ServiceID       *uint     `gorm:"index"`
	CreatedAt       time.Time

	Role    Role     `gorm:"constraint:OnDelete:RESTRICT;foreignKey:RoleID;references:ID"`
	Sender  *User    `gorm:"constraint:OnDelete:SET NULL;foreignKey:SenderID;references:ID"`
	Service *Service `gorm:"constraint:OnDelete:CASCADE;foreignKey:ServiceID;references:ID"`
}

// IsExpiredAt reports whether the invite has passed its expiry at the given
// instant. An invite whose expiry equals the current time is already expired.
func (i *Invite) IsExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsExpired reports whether the invite has passed its expiry.
func (i *Invite) IsExpired() bool {
	return i.IsExpiredAt(time.Now())
}

// IsUsableAt reports whether the invite can still be accepted or resent at the
// given instant.
func (i *Invite) IsUsableAt(now time.Time) bool {
	return !i.Disabled && !i.IsExpiredAt(now)
}

// IsForService reports whether the invite targets the given service.
func (i *Invite) IsForService(serviceID uint) bool {
	return i.ServiceID != nil && *i.ServiceID == serviceID
}
