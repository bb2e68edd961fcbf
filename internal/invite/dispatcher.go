package invite

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alphagov-mirror/pay-adminusers/internal/metrics"
)

// Notifier is the synchronous contract of the notification gateway. Each call
// returns the gateway's delivery identifier.
type Notifier interface {
	SendInviteEmail(ctx context.Context, senderEmail, to, inviteURL string) (string, error)
	SendInviteExistingUserEmail(ctx context.Context, senderEmail, to, inviteURL, serviceName string) (string, error)
	SendServiceInviteEmail(ctx context.Context, to, inviteURL string) (string, error)
	SendServiceInviteUserExistsEmail(ctx context.Context, to, loginURL, forgottenPasswordURL, supportURL string) (string, error)
	SendServiceInviteUserDisabledEmail(ctx context.Context, to, supportURL string) (string, error)
}

const dispatchTimeout = 30 * time.Second

// Dispatcher runs notification sends on their own goroutines. Outcomes are
// observed only for logging and metrics; a failed dispatch never reaches the
// caller. Wait drains in-flight sends on shutdown.
type Dispatcher struct {
	notifier Notifier
	metrics  *metrics.Collector
	wg       sync.WaitGroup
}

// NewDispatcher wraps a Notifier. metrics may be nil.
func NewDispatcher(notifier Notifier, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{notifier: notifier, metrics: collector}
}

// dispatch fires fn on a detached goroutine. The request context is not
// reused: the send must outlive the request that triggered it.
func (d *Dispatcher) dispatch(message string, fn func(ctx context.Context) (string, error)) {
	if d == nil || d.notifier == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		id, err := fn(ctx)
		d.metrics.RecordNotification(message, err)
		if err != nil {
			log.Error().Err(err).Str("message", message).Msg("notification dispatch failed")
			return
		}
		log.Info().Str("message", message).Str("notification_id", id).Msg("notification dispatched")
	}()
}

// Wait blocks until all in-flight dispatches complete.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// InviteNewUser sends the initial invitation for a prospective new account.
func (d *Dispatcher) InviteNewUser(senderEmail, to, inviteURL string) {
	d.dispatch("invite_new_user", func(ctx context.Context) (string, error) {
		return d.notifier.SendInviteEmail(ctx, senderEmail, to, inviteURL)
	})
}

// InviteExistingUser sends the invitation wording for an account that already
// exists on the platform.
func (d *Dispatcher) InviteExistingUser(senderEmail, to, inviteURL, serviceName string) {
	d.dispatch("invite_existing_user", func(ctx context.Context) (string, error) {
		return d.notifier.SendInviteExistingUserEmail(ctx, senderEmail, to, inviteURL, serviceName)
	})
}

// ServiceInvite sends the invitation to found a brand-new service.
func (d *Dispatcher) ServiceInvite(to, inviteURL string) {
	d.dispatch("service_invite", func(ctx context.Context) (string, error) {
		return d.notifier.SendServiceInviteEmail(ctx, to, inviteURL)
	})
}

// ServiceInviteUserExists tells an active account holder that someone tried
// to re-register their email.
func (d *Dispatcher) ServiceInviteUserExists(to, loginURL, forgottenPasswordURL, supportURL string) {
	d.dispatch("service_invite_user_exists", func(ctx context.Context) (string, error) {
		return d.notifier.SendServiceInviteUserExistsEmail(ctx, to, loginURL, forgottenPasswordURL, supportURL)
	})
}

// ServiceInviteUserDisabled tells a disabled account holder to contact
// support.
func (d *Dispatcher) ServiceInviteUserDisabled(to, supportURL string) {
	d.dispatch("service_invite_user_disabled", func(ctx context.Context) (string, error) {
		return d.notifier.SendServiceInviteUserDisabledEmail(ctx, to, supportURL)
	})
}
