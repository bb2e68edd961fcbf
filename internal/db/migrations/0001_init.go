// Package migrations holds the embedded schema migrations for adminusers.
package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

// The migration declares its own copies of the persisted models so that later
// changes to internal/models never rewrite history.

type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:text;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Service struct {
	ID         uint              `gorm:"primaryKey;autoIncrement"`
	ExternalID string            `gorm:"type:text;uniqueIndex;not null"`
	Names      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type User struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	ExternalID      string `gorm:"type:text;uniqueIndex;not null"`
	Email           string `gorm:"type:text;uniqueIndex;not null"`
	OtpKey          string `gorm:"type:text"`
	TelephoneNumber string `gorm:"type:text"`
	Disabled        bool   `gorm:"not null;default:false"`
	LoginCount      int    `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type ServiceRole struct {
	UserID    uint      `gorm:"primaryKey"`
	ServiceID uint      `gorm:"primaryKey"`
	RoleID    uint      `gorm:"not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Service   Service   `gorm:"foreignKey:ServiceID;references:ID;constraint:OnDelete:CASCADE"`
	Role      Role      `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:CASCADE"`
}

type Invite struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	Code            string    `gorm:"type:text;uniqueIndex;not null"`
	Email           string    `gorm:"type:text;index;not null"`
	OtpKey          string    `gorm:"type:text;not null"`
	TelephoneNumber string    `gorm:"type:text"`
	RoleID          uint      `gorm:"not null"`
	Kind            string    `gorm:"type:text;not null"`
	Disabled        bool      `gorm:"not null;default:false"`
	ExpiresAt       time.Time `gorm:"type:timestamptz;not null"`
	SenderID        *uint     `gorm:"index"`
	ServiceID       *uint     `gorm:"index"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Role            Role      `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT"`
	Sender          *User     `gorm:"foreignKey:SenderID;references:ID;constraint:OnDelete:SET NULL"`
	Service         *Service  `gorm:"foreignKey:ServiceID;references:ID;constraint:OnDelete:CASCADE"`
}

func openGorm(tx *sql.Tx) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{TablePrefix: "adminusers.", SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openGorm(tx)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS adminusers`); err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&Role{},
		&Service{},
		&User{},
		&ServiceRole{},
		&Invite{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&ServiceRole{}, "User"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&ServiceRole{}, "Service"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&ServiceRole{}, "Role"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Invite{}, "Role"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Invite{}, "Sender"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Invite{}, "Service"); err != nil {
		return err
	}

	// Backstop against two concurrent requests both reaching the create
	// branch for the same email and target service. Expired rows are
	// disabled when superseded, which keeps this index satisfiable.
	_, err = tx.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_invites_email_service_usable
		ON adminusers.invites (email, COALESCE(service_id, 0))
		WHERE NOT disabled`)
	return err
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openGorm(tx)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS adminusers.idx_invites_email_service_usable`); err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Migrator().DropTable(
		&Invite{},
		&ServiceRole{},
		&User{},
		&Service{},
		&Role{},
	)
}
