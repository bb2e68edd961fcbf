package invite

import (
	"context"
	"sync"

	"github.com/alphagov-mirror/pay-adminusers/internal/models"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
)

// fakeStore is an in-memory EntityStore for flow tests.
type fakeStore struct {
	users    []models.User
	services []models.Service
	roles    []models.Role
	invites  []models.Invite

	createErr error

	created  []*models.Invite
	disabled []string
	txCalls  int
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for i := range f.users {
		if f.users[i].Email == email {
			return &f.users[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	for i := range f.users {
		if f.users[i].ExternalID == externalID {
			return &f.users[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindServiceByExternalID(_ context.Context, externalID string) (*models.Service, error) {
	for i := range f.services {
		if f.services[i].ExternalID == externalID {
			return &f.services[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindRoleByName(_ context.Context, name string) (*models.Role, error) {
	for i := range f.roles {
		if f.roles[i].Name == name {
			return &f.roles[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindInvitesByEmail(_ context.Context, email string) ([]models.Invite, error) {
	var out []models.Invite
	for _, inv := range f.invites {
		if inv.Email == email {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) FindInviteByCode(_ context.Context, code string) (*models.Invite, error) {
	for i := range f.invites {
		if f.invites[i].Code == code {
			return &f.invites[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateInvite(_ context.Context, invite *models.Invite) error {
	if f.createErr != nil {
		return f.createErr
	}
	invite.ID = uint(len(f.invites) + 1)
	f.invites = append(f.invites, *invite)
	f.created = append(f.created, invite)
	return nil
}

func (f *fakeStore) DisableInvite(_ context.Context, invite *models.Invite) error {
	invite.Disabled = true
	for i := range f.invites {
		if f.invites[i].Code == invite.Code {
			f.invites[i].Disabled = true
		}
	}
	f.disabled = append(f.disabled, invite.Code)
	return nil
}

func (f *fakeStore) InTransaction(_ context.Context, fn func(store.EntityStore) error) error {
	f.txCalls++
	return fn(f)
}

type notifierCall struct {
	method  string
	sender  string
	to      string
	url     string
	service string
}

// fakeNotifier records dispatched notifications. Safe for concurrent use
// since the dispatcher sends from detached goroutines.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
	err   error
}

func (f *fakeNotifier) record(c notifierCall) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return "", f.err
	}
	return "notify-id", nil
}

func (f *fakeNotifier) snapshot() []notifierCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifierCall(nil), f.calls...)
}

func (f *fakeNotifier) SendInviteEmail(_ context.Context, senderEmail, to, inviteURL string) (string, error) {
	return f.record(notifierCall{method: "invite_new_user", sender: senderEmail, to: to, url: inviteURL})
}

func (f *fakeNotifier) SendInviteExistingUserEmail(_ context.Context, senderEmail, to, inviteURL, serviceName string) (string, error) {
	return f.record(notifierCall{method: "invite_existing_user", sender: senderEmail, to: to, url: inviteURL, service: serviceName})
}

func (f *fakeNotifier) SendServiceInviteEmail(_ context.Context, to, inviteURL string) (string, error) {
	return f.record(notifierCall{method: "service_invite", to: to, url: inviteURL})
}

func (f *fakeNotifier) SendServiceInviteUserExistsEmail(_ context.Context, to, loginURL, forgottenPasswordURL, supportURL string) (string, error) {
	return f.record(notifierCall{method: "service_invite_user_exists", to: to, url: loginURL})
}

func (f *fakeNotifier) SendServiceInviteUserDisabledEmail(_ context.Context, to, supportURL string) (string, error) {
	return f.record(notifierCall{method: "service_invite_user_disabled", to: to, url: supportURL})
}

// fakeEvents records published lifecycle events.
type fakeEvents struct {
	subjects []string
}

func (f *fakeEvents) Publish(_ context.Context, subject string, _ any) error {
	f.subjects = append(f.subjects, subject)
	return nil
}
