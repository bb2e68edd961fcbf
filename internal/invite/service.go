package invite

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alphagov-mirror/pay-adminusers/internal/email"
	"github.com/alphagov-mirror/pay-adminusers/internal/metrics"
	"github.com/alphagov-mirror/pay-adminusers/internal/models"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
)

// Lifecycle event subjects.
const (
	subjectInviteCreated = "adminusers.invites.created"
	subjectInviteResent  = "adminusers.invites.resent"
)

// EventPublisher posts lifecycle events after the unit of work commits.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Config carries the shared collaborators and settings for the two creators.
type Config struct {
	Links   Links
	TTL     time.Duration
	Events  EventPublisher
	Metrics *metrics.Collector

	// RequirePublicSectorEmail restricts the service flow to recognised
	// public sector domains.
	RequirePublicSectorEmail bool

	// Clock is overridable for tests. Defaults to time.Now.
	Clock func() time.Time
}

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// ServiceCreator handles invitations that found a brand-new service. There is
// no pre-existing service or sender to check against; any usable invite for
// the email blocks the request.
type ServiceCreator struct {
	entities   store.EntityStore
	dispatcher *Dispatcher
	cfg        Config
}

// NewServiceCreator wires a ServiceCreator.
func NewServiceCreator(entities store.EntityStore, dispatcher *Dispatcher, cfg Config) (*ServiceCreator, error) {
	if entities == nil {
		return nil, errors.New("entity store is required")
	}
	cfg.applyDefaults()
	return &ServiceCreator{entities: entities, dispatcher: dispatcher, cfg: cfg}, nil
}

// Create validates the request, persists a SERVICE-kind invite inside one
// unit of work, and dispatches the invitation email best-effort. Reject paths
// that notify the existing account holder dispatch without any preceding
// write.
func (c *ServiceCreator) Create(ctx context.Context, req ServiceRequest) (*Invite, error) {
	candidate := normalizeEmail(req.Email)
	if !email.IsValid(candidate) {
		return nil, invalidEmail(req.Email)
	}
	if c.cfg.RequirePublicSectorEmail && !email.IsPublicSector(candidate) {
		return nil, notPublicSector(candidate)
	}

	var (
		created    *models.Invite
		dispatches []func()
	)

	err := c.entities.InTransaction(ctx, func(tx store.EntityStore) error {
		user, err := tx.FindUserByEmail(ctx, candidate)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if user != nil {
			if user.Disabled {
				dispatches = append(dispatches, func() {
					c.dispatcher.ServiceInviteUserDisabled(candidate, c.cfg.Links.SupportURL)
				})
				log.Info().Str("user_id", user.ExternalID).Msg("disabled existing user tried to create a service")
			} else {
				dispatches = append(dispatches, func() {
					c.dispatcher.ServiceInviteUserExists(candidate,
						c.cfg.Links.SelfserviceLoginURL, c.cfg.Links.SelfserviceForgottenPasswordURL, c.cfg.Links.SupportURL)
				})
				log.Info().Str("user_id", user.ExternalID).Msg("existing user tried to create a service")
			}
			return conflictingEmail(candidate)
		}

		invites, err := tx.FindInvitesByEmail(ctx, candidate)
		if err != nil {
			return err
		}

		res := resolve(invites, nil, c.cfg.Clock())
		if res.outcome == outcomeReject {
			// Already notified when the pending invite was first created.
			return conflictingInvite(candidate)
		}

		role, err := tx.FindRoleByName(ctx, req.RoleName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return unknownRole(req.RoleName)
			}
			return err
		}

		for _, old := range res.supersede {
			if err := tx.DisableInvite(ctx, old); err != nil {
				return err
			}
		}

		rec := newServiceInvite(candidate, req.OtpKey, req.TelephoneNumber, role, c.cfg.Clock().Add(c.cfg.TTL))
		if err := tx.CreateInvite(ctx, rec); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return raceConflict(candidate)
			}
			return err
		}

		created = rec
		return nil
	})

	// Reject-with-notify paths queue their dispatch inside the unit of work
	// but it only fires here, outside it.
	for _, dispatch := range dispatches {
		dispatch()
	}

	if err != nil {
		c.recordConflict(err)
		return nil, err
	}

	c.cfg.Metrics.RecordInviteCreated(models.InviteKindService)
	publishEvent(ctx, c.cfg.Events, subjectInviteCreated, map[string]any{
		"code":  created.Code,
		"email": created.Email,
		"type":  created.Kind,
	})

	c.dispatcher.ServiceInvite(candidate, c.cfg.Links.InviteURL(created.Code))
	log.Info().Str("code", created.Code).Msg("new service creation invitation created")

	return Decorate(created, c.cfg.Links), nil
}

func (c *ServiceCreator) recordConflict(err error) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		c.cfg.Metrics.RecordInviteConflict(conflict.Reason)
	}
}

func publishEvent(ctx context.Context, events EventPublisher, subject string, payload map[string]any) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, subject, payload); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("publish lifecycle event")
	}
}
