package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alphagov-mirror/pay-adminusers/internal/models"
)

// Seed inserts the operator-controlled role vocabulary.
func Seed(ctx context.Context, database *gorm.DB) error {
	defaultRoles := []models.Role{
		{Name: "admin", Description: "Administrator"},
		{Name: "view-and-refund", Description: "View and Refund"},
		{Name: "view-only", Description: "View only"},
	}
	for _, role := range defaultRoles {
		if err := database.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}
