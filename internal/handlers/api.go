// Package handlers exposes the invitation API over HTTP.
package handlers

import (
	"context"
	"errors"

	"github.com/alphagov-mirror/pay-adminusers/internal/invite"
	"github.com/alphagov-mirror/pay-adminusers/internal/models"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
)

// ServiceInviter runs the service invitation flow.
type ServiceInviter interface {
	Create(ctx context.Context, req invite.ServiceRequest) (*invite.Invite, error)
}

// UserInviter runs the user invitation flow.
type UserInviter interface {
	Invite(ctx context.Context, req invite.UserRequest) (*invite.Invite, error)
}

// InviteReader serves the read-side endpoints.
type InviteReader interface {
	FindInviteByCode(ctx context.Context, code string) (*models.Invite, error)
	FindInvitesByService(ctx context.Context, serviceExternalID string) ([]store.ServiceInviteRow, error)
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	AllowedOrigins []string
	Links          invite.Links
}

// API wires the invitation flows and read-side queries behind HTTP handlers.
type API struct {
	services ServiceInviter
	users    UserInviter
	reader   InviteReader
	config   Config
}

// New initialises the API layer.
func New(services ServiceInviter, users UserInviter, reader InviteReader, cfg Config) (*API, error) {
	if services == nil {
		return nil, errors.New("service inviter is required")
	}
	if users == nil {
		return nil, errors.New("user inviter is required")
	}
	if reader == nil {
		return nil, errors.New("invite reader is required")
	}
	return &API{services: services, users: users, reader: reader, config: cfg}, nil
}
