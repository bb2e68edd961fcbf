// Package invite implements the invitation lifecycle: conflict resolution
// between existing users and invites, and the two flows that create or resend
// invitations.
package invite

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alphagov-mirror/pay-adminusers/internal/models"
)

// DefaultTTL is how long a freshly created invite stays usable.
const DefaultTTL = 90 * time.Minute

// Links holds the navigable URLs woven into invite representations and
// notification emails.
type Links struct {
	SelfserviceInvitesURL           string
	SelfserviceLoginURL             string
	SelfserviceForgottenPasswordURL string
	SupportURL                      string
}

// InviteURL returns the navigable URL for an invite code.
func (l Links) InviteURL(code string) string {
	return strings.TrimRight(l.SelfserviceInvitesURL, "/") + "/" + code
}

// ServiceRequest asks to invite a brand-new account that will found a new
// service on acceptance.
type ServiceRequest struct {
	Email           string `json:"email"`
	OtpKey          string `json:"otp_key,omitempty"`
	TelephoneNumber string `json:"telephone_number,omitempty"`
	RoleName        string `json:"role_name"`
}

// UserRequest asks to invite an account (new or existing) into an existing
// service.
type UserRequest struct {
	SenderExternalID  string `json:"sender"`
	Email             string `json:"email"`
	ServiceExternalID string `json:"service_external_id"`
	RoleName          string `json:"role_name"`
}

// Link is a navigable relation on an invite representation.
type Link struct {
	Rel    string `json:"rel"`
	Method string `json:"method"`
	Href   string `json:"href"`
}

// Invite is the decorated representation returned to callers.
type Invite struct {
	Code            string    `json:"code"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Kind            string    `json:"type"`
	TelephoneNumber string    `json:"telephone_number,omitempty"`
	Disabled        bool      `json:"disabled"`
	ExpiresAt       time.Time `json:"expires_at"`
	InviteURL       string    `json:"invite_url"`
	Links           []Link    `json:"_links"`
}

// Decorate builds the outward representation of a persisted invite.
func Decorate(rec *models.Invite, links Links) *Invite {
	inviteURL := links.InviteURL(rec.Code)
	return &Invite{
		Code:            rec.Code,
		Email:           rec.Email,
		Role:            rec.Role.Name,
		Kind:            rec.Kind,
		TelephoneNumber: rec.TelephoneNumber,
		Disabled:        rec.Disabled,
		ExpiresAt:       rec.ExpiresAt,
		InviteURL:       inviteURL,
		Links: []Link{
			{Rel: "invite", Method: "GET", Href: inviteURL},
		},
	}
}

// newCode returns a fresh 32 character lowercase hex invite code.
func newCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// newOtpKey returns a random base32 secret for second-factor provisioning.
func newOtpKey() string {
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
}

// newServiceInvite builds a SERVICE-kind record. Service invites never carry
// a sender or target service reference; neither exists yet.
func newServiceInvite(email, otpKey, telephone string, role *models.Role, expiresAt time.Time) *models.Invite {
	if otpKey == "" {
		otpKey = newOtpKey()
	}
	return &models.Invite{
		Code:            newCode(),
		Email:           email,
		OtpKey:          otpKey,
		TelephoneNumber: telephone,
		RoleID:          role.ID,
		Role:            *role,
		Kind:            models.InviteKindService,
		ExpiresAt:       expiresAt,
	}
}

// newUserInvite builds a USER-kind record, which always references both the
// sender and the target service.
func newUserInvite(email string, role *models.Role, sender *models.User, service *models.Service, expiresAt time.Time) *models.Invite {
	return &models.Invite{
		Code:      newCode(),
		Email:     email,
		OtpKey:    newOtpKey(),
		RoleID:    role.ID,
		Role:      *role,
		Kind:      models.InviteKindUser,
		ExpiresAt: expiresAt,
		SenderID:  &sender.ID,
		Sender:    sender,
		ServiceID: &service.ID,
		Service:   service,
	}
}

// normalizeEmail lowercases and trims the candidate address.
func normalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
