package invite

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/alphagov-mirror/pay-adminusers/internal/email"
	"github.com/alphagov-mirror/pay-adminusers/internal/models"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
)

// UserCreator handles invitations that add a user, new or existing, to an
// already-existing service.
type UserCreator struct {
	entities   store.EntityStore
	dispatcher *Dispatcher
	cfg        Config
}

// NewUserCreator wires a UserCreator.
func NewUserCreator(entities store.EntityStore, dispatcher *Dispatcher, cfg Config) (*UserCreator, error) {
	if entities == nil {
		return nil, errors.New("entity store is required")
	}
	cfg.applyDefaults()
	return &UserCreator{entities: entities, dispatcher: dispatcher, cfg: cfg}, nil
}

// Invite runs the user invitation flow. It returns (nil, nil) when the target
// service does not exist: an absent resource, not a failure. On the reuse
// path the existing invite is returned unchanged and the resend email uses
// the existing invite's sender and service display name, not the current
// request's.
func (c *UserCreator) Invite(ctx context.Context, req UserRequest) (*Invite, error) {
	candidate := normalizeEmail(req.Email)
	if !email.IsValid(candidate) {
		return nil, invalidEmail(req.Email)
	}

	var (
		result        *models.Invite
		resent        bool
		serviceFound  bool
		inviteeExists bool
	)

	err := c.entities.InTransaction(ctx, func(tx store.EntityStore) error {
		svc, err := tx.FindServiceByExternalID(ctx, req.ServiceExternalID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		serviceFound = true

		sender, err := tx.FindUserByExternalID(ctx, req.SenderExternalID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return forbiddenSender(req.SenderExternalID, req.ServiceExternalID)
			}
			return err
		}
		if !sender.HasRoleForService(svc.ID) {
			return forbiddenSender(req.SenderExternalID, req.ServiceExternalID)
		}

		invitee, err := tx.FindUserByEmail(ctx, candidate)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if invitee != nil {
			if invitee.HasRoleForService(svc.ID) {
				return userAlreadyInService(candidate, req.ServiceExternalID)
			}
			inviteeExists = true
		}

		invites, err := tx.FindInvitesByEmail(ctx, candidate)
		if err != nil {
			return err
		}

		res := resolve(invites, svc, c.cfg.Clock())
		switch res.outcome {
		case outcomeReject:
			return conflictingInvite(candidate)
		case outcomeReuse:
			result = res.existing
			resent = true
			return nil
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

		rec := newUserInvite(candidate, role, sender, svc, c.cfg.Clock().Add(c.cfg.TTL))
		if err := tx.CreateInvite(ctx, rec); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return raceConflict(candidate)
			}
			return err
		}

		result = rec
		return nil
	})
	if err != nil {
		c.recordConflict(err)
		return nil, err
	}
	if !serviceFound {
		return nil, nil
	}

	inviteURL := c.cfg.Links.InviteURL(result.Code)
	senderEmail := ""
	if result.Sender != nil {
		senderEmail = result.Sender.Email
	}
	serviceName := ""
	if result.Service != nil {
		serviceName = result.Service.Name(models.DefaultLanguage)
	}

	subject := subjectInviteCreated
	if resent {
		subject = subjectInviteResent
		c.cfg.Metrics.RecordInviteResent()
	} else {
		c.cfg.Metrics.RecordInviteCreated(models.InviteKindUser)
	}
	publishEvent(ctx, c.cfg.Events, subject, map[string]any{
		"code":    result.Code,
		"email":   result.Email,
		"type":    result.Kind,
		"service": req.ServiceExternalID,
	})

	if inviteeExists {
		c.dispatcher.InviteExistingUser(senderEmail, candidate, inviteURL, serviceName)
	} else {
		c.dispatcher.InviteNewUser(senderEmail, candidate, inviteURL)
	}
	log.Info().
		Str("code", result.Code).
		Str("service", req.ServiceExternalID).
		Bool("resent", resent).
		Msg("user invitation processed")

	return Decorate(result, c.cfg.Links), nil
}

func (c *UserCreator) recordConflict(err error) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		c.cfg.Metrics.RecordInviteConflict(conflict.Reason)
	}
}
