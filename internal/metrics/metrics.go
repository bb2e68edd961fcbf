// Package metrics collects and exposes Prometheus metrics for adminusers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts invite lifecycle and notification dispatch outcomes.
type Collector struct {
	invitesCreated    *prometheus.CounterVec
	invitesResent     prometheus.Counter
	inviteConflicts   *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		invitesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminusers_invites_created_total",
			Help: "Invites persisted, by kind.",
		}, []string{"kind"}),
		invitesResent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adminusers_invites_resent_total",
			Help: "Resend requests served from an existing usable invite.",
		}),
		inviteConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminusers_invite_conflicts_total",
			Help: "Invite requests rejected with a conflict, by reason.",
		}, []string{"reason"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminusers_notifications_total",
			Help: "Notification dispatch attempts, by message and outcome.",
		}, []string{"message", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(c.invitesCreated, c.invitesResent, c.inviteConflicts, c.notificationsSent)
	}
	return c
}

// RecordInviteCreated counts a persisted invite of the given kind.
func (c *Collector) RecordInviteCreated(kind string) {
	if c == nil {
		return
	}
	c.invitesCreated.WithLabelValues(kind).Inc()
}

// RecordInviteResent counts a resend served from an existing invite.
func (c *Collector) RecordInviteResent() {
	if c == nil {
		return
	}
	c.invitesResent.Inc()
}

// RecordInviteConflict counts a rejected invite request.
func (c *Collector) RecordInviteConflict(reason string) {
	if c == nil {
		return
	}
	c.inviteConflicts.WithLabelValues(reason).Inc()
}

// RecordNotification counts one dispatch attempt for a message kind.
func (c *Collector) RecordNotification(message string, err error) {
	if c == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "error"
	}
	c.notificationsSent.WithLabelValues(message, outcome).Inc()
}
