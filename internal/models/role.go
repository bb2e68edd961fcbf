package models

import "time"

// Role describes a permission grouping that can be granted within a service.
// Role names are a closed, operator-controlled vocabulary.
type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:text;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
