package store

import (
	"context"
	"errors"
	"time"

	"github.com/alphagov-mirror/pay-adminusers/internal/db"
)

// ServiceInviteRow is a flattened invite listing for one service.
type ServiceInviteRow struct {
	Code      string    `db:"code"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	Kind      string    `db:"kind"`
	Disabled  bool      `db:"disabled"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// FindInvitesByService lists invites targeting the service with the given
// external id, newest first.
func (s *Store) FindInvitesByService(ctx context.Context, serviceExternalID string) ([]ServiceInviteRow, error) {
	if s.pool == nil {
		return nil, errors.New("store has no query pool")
	}

	var rows []ServiceInviteRow
	err := db.Select(ctx, s.pool, &rows, `
		SELECT i.code, i.email, r.name AS role, i.kind, i.disabled,
		       i.expires_at, i.created_at
		FROM adminusers.invites i
		JOIN adminusers.roles r ON r.id = i.role_id
		JOIN adminusers.services s ON s.id = i.service_id
		WHERE s.external_id = $1
		ORDER BY i.created_at DESC, i.id DESC`, serviceExternalID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
