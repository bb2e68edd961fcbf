package models

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultLanguage is the language used when a caller does not ask for a
// specific service name translation.
const DefaultLanguage = "en"

// Service represents a tenant on the payments platform.
type Service struct {
	ID         uint              `gorm:"primaryKey;autoIncrement"`
	ExternalID string            `gorm:"type:text;uniqueIndex;not null"`
	Names      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Name returns the display name for the given language, falling back to the
// default language and then to any available name.
func (s *Service) Name(lang string) string {
	if name, ok := s.Names[lang].(string); ok && name != "" {
		return name
	}
	if name, ok := s.Names[DefaultLanguage].(string); ok && name != "" {
		return name
	}
	for _, v := range s.Names {
		if name, ok := v.(string); ok && name != "" {
			return name
		}
	}
	return ""
}
