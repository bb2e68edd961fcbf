package invite

import (
	"time"

	"github.com/alphagov-mirror/pay-adminusers/internal/models"
)

// outcome classifies an invite request against the invites already on record
// for the candidate email.
type outcome int

const (
	// outcomeCreate means no blocking conflict exists; a fresh record may
	// be persisted.
	outcomeCreate outcome = iota
	// outcomeReuse means a usable invite for the same target service
	// already exists and must be resent unchanged.
	outcomeReuse
	// outcomeReject means a usable invite blocks the request.
	outcomeReject
)

// resolution is the conflict resolver's decision.
type resolution struct {
	outcome outcome
	// existing is the invite to resend on reuse. Set only for outcomeReuse.
	existing *models.Invite
	// supersede are expired, not-yet-disabled records for the same context
	// that the create path must disable before writing a replacement.
	supersede []*models.Invite
}

// resolve classifies the request. service is nil for SERVICE-kind requests,
// where no target service exists yet to disambiguate: any usable invite for
// the email blocks. For USER-kind requests a usable invite for the same
// service is reused regardless of its sender; a usable SERVICE-kind invite
// signals an ambiguous concurrent onboarding attempt and blocks; usable
// invites for other services are unrelated and do not block.
//
// When several usable invites match the same service the most recently
// created wins. The store's uniqueness backstop should prevent that state,
// but it is tolerated here.
func resolve(invites []models.Invite, service *models.Service, now time.Time) resolution {
	var res resolution

	for i := range invites {
		inv := &invites[i]

		if inv.Disabled {
			continue
		}
		if inv.IsExpiredAt(now) {
			if sameContext(inv, service) {
				res.supersede = append(res.supersede, inv)
			}
			continue
		}

		// Usable invite.
		if service == nil {
			res.outcome = outcomeReject
			return res
		}
		if inv.IsForService(service.ID) {
			if res.existing == nil || inv.CreatedAt.After(res.existing.CreatedAt) {
				res.existing = inv
			}
			res.outcome = outcomeReuse
			continue
		}
		if inv.ServiceID == nil {
			// A pending invitation to found a new service.
			res.outcome = outcomeReject
			return res
		}
		// Usable invite for an unrelated service: not blocking.
	}

	return res
}

func sameContext(inv *models.Invite, service *models.Service) bool {
	if service == nil {
		return inv.ServiceID == nil
	}
	return inv.IsForService(service.ID)
}
