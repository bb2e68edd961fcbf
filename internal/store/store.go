// Package store provides transactional access to adminusers entities.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/alphagov-mirror/pay-adminusers/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a write violated a uniqueness constraint,
	// typically because a concurrent request won the race.
	ErrDuplicate = errors.New("duplicate record")
)

// EntityStore is the persistence boundary consumed by the invitation flows.
// All reads and the eventual write for one request run against the same
// snapshot when wrapped in InTransaction.
type EntityStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindServiceByExternalID(ctx context.Context, externalID string) (*models.Service, error)
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	FindInvitesByEmail(ctx context.Context, email string) ([]models.Invite, error)
	FindInviteByCode(ctx context.Context, code string) (*models.Invite, error)
	CreateInvite(ctx context.Context, invite *models.Invite) error
	DisableInvite(ctx context.Context, invite *models.Invite) error
	InTransaction(ctx context.Context, fn func(EntityStore) error) error
}

// Store implements EntityStore backed by GORM, with a pgx pool for raw
// reporting queries.
type Store struct {
	orm  *gorm.DB
	pool *pgxpool.Pool
}

// New creates a Store over the provided handles. The pool may be nil when raw
// queries are not needed, for example in tests.
func New(orm *gorm.DB, pool *pgxpool.Pool) (*Store, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	return &Store{orm: orm, pool: pool}, nil
}

// InTransaction runs fn against a Store bound to a single database
// transaction. Nested calls reuse the surrounding transaction.
func (s *Store) InTransaction(ctx context.Context, fn func(EntityStore) error) error {
	return s.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{orm: tx, pool: s.pool})
	})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.orm.WithContext(ctx).
		Preload("ServiceRoles").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := s.orm.WithContext(ctx).
		Preload("ServiceRoles").
		Where("external_id = ?", externalID).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindServiceByExternalID(ctx context.Context, externalID string) (*models.Service, error) {
	var svc models.Service
	err := s.orm.WithContext(ctx).Where("external_id = ?", externalID).First(&svc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &svc, nil
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := s.orm.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

// FindInvitesByEmail returns every invite ever issued to the email, oldest
// first, with role, sender, and target service loaded.
func (s *Store) FindInvitesByEmail(ctx context.Context, email string) ([]models.Invite, error) {
	var invites []models.Invite
	err := s.orm.WithContext(ctx).
		Preload("Role").
		Preload("Sender").
		Preload("Service").
		Where("email = ?", email).
		Order("created_at ASC, id ASC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (s *Store) FindInviteByCode(ctx context.Context, code string) (*models.Invite, error) {
	var invite models.Invite
	err := s.orm.WithContext(ctx).
		Preload("Role").
		Preload("Sender").
		Preload("Service").
		Where("code = ?", code).
		First(&invite).Error
	if err != nil {
		return nil, translate(err)
	}
	return &invite, nil
}

func (s *Store) CreateInvite(ctx context.Context, invite *models.Invite) error {
	if err := s.orm.WithContext(ctx).Create(invite).Error; err != nil {
		return translate(err)
	}
	return nil
}

// DisableInvite marks the invite unusable. Records are never deleted.
func (s *Store) DisableInvite(ctx context.Context, invite *models.Invite) error {
	invite.Disabled = true
	return s.orm.WithContext(ctx).
		Model(invite).
		Update("disabled", true).Error
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
