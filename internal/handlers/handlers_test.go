package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alphagov-mirror/pay-adminusers/internal/invite"
	"github.com/alphagov-mirror/pay-adminusers/internal/models"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
)

type fakeServiceInviter struct {
	result *invite.Invite
	err    error
	gotReq invite.ServiceRequest
}

func (f *fakeServiceInviter) Create(_ context.Context, req invite.ServiceRequest) (*invite.Invite, error) {
	f.gotReq = req
	return f.result, f.err
}

type fakeUserInviter struct {
	result *invite.Invite
	err    error
	gotReq invite.UserRequest
}

func (f *fakeUserInviter) Invite(_ context.Context, req invite.UserRequest) (*invite.Invite, error) {
	f.gotReq = req
	return f.result, f.err
}

type fakeReader struct {
	invite *models.Invite
	rows   []store.ServiceInviteRow
	err    error
}

func (f *fakeReader) FindInviteByCode(context.Context, string) (*models.Invite, error) {
	return f.invite, f.err
}

func (f *fakeReader) FindInvitesByService(context.Context, string) ([]store.ServiceInviteRow, error) {
	return f.rows, f.err
}

func testAPI(t *testing.T, services ServiceInviter, users UserInviter, reader InviteReader) http.Handler {
	t.Helper()
	if services == nil {
		services = &fakeServiceInviter{}
	}
	if users == nil {
		users = &fakeUserInviter{}
	}
	if reader == nil {
		reader = &fakeReader{}
	}
	api, err := New(services, users, reader, Config{
		Links: invite.Links{SelfserviceInvitesURL: "http://selfservice/invites"},
	})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	return api.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var body struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Errors
}

func TestCreateServiceInvite(t *testing.T) {
	services := &fakeServiceInviter{result: &invite.Invite{
		Code:  "abc123",
		Email: "founder@example.gov.uk",
		Kind:  models.InviteKindService,
	}}
	h := testAPI(t, services, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/service",
		`{"email":"founder@example.gov.uk","role_name":"admin"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got invite.Invite
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != "abc123" {
		t.Errorf("code = %q", got.Code)
	}
	if services.gotReq.Email != "founder@example.gov.uk" {
		t.Errorf("request email = %q", services.gotReq.Email)
	}
}

func TestCreateServiceInviteRequiresEmail(t *testing.T) {
	h := testAPI(t, nil, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/service", `{"role_name":"admin"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if errs := decodeErrors(t, rec); len(errs) != 1 || errs[0] != "email is required" {
		t.Errorf("errors = %v", errs)
	}
}

func TestCreateServiceInviteConflict(t *testing.T) {
	services := &fakeServiceInviter{err: &invite.ConflictError{
		Reason:  invite.ReasonEmailExists,
		Message: "email [taken@example.com] already exists",
	}}
	h := testAPI(t, services, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/service",
		`{"email":"taken@example.com","role_name":"admin"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if errs := decodeErrors(t, rec); len(errs) != 1 || !strings.Contains(errs[0], "already exists") {
		t.Errorf("errors = %v", errs)
	}
}

func TestCreateServiceInviteValidationStatus(t *testing.T) {
	services := &fakeServiceInviter{err: &invite.ValidationError{Message: "invalid email address [nope]"}}
	h := testAPI(t, services, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/service",
		`{"email":"nope","role_name":"admin"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateUserInvite(t *testing.T) {
	users := &fakeUserInviter{result: &invite.Invite{Code: "def456", Kind: models.InviteKindUser}}
	h := testAPI(t, nil, users, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/user",
		`{"sender":"sender-ext","email":"new@example.com","service_external_id":"svc-ext","role_name":"view-only"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if users.gotReq.ServiceExternalID != "svc-ext" {
		t.Errorf("service = %q", users.gotReq.ServiceExternalID)
	}
}

func TestCreateUserInviteRequiresAllFields(t *testing.T) {
	h := testAPI(t, nil, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/user",
		`{"email":"new@example.com","service_external_id":"svc-ext","role_name":"view-only"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if errs := decodeErrors(t, rec); len(errs) != 1 || errs[0] != "sender is required" {
		t.Errorf("errors = %v", errs)
	}
}

func TestCreateUserInviteUnknownService(t *testing.T) {
	users := &fakeUserInviter{result: nil, err: nil}
	h := testAPI(t, nil, users, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/user",
		`{"sender":"sender-ext","email":"new@example.com","service_external_id":"missing","role_name":"view-only"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateUserInviteForbidden(t *testing.T) {
	users := &fakeUserInviter{err: &invite.ForbiddenError{Message: "user [x] not authorised to invite users to service [y]"}}
	h := testAPI(t, nil, users, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/user",
		`{"sender":"x","email":"new@example.com","service_external_id":"y","role_name":"view-only"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateUserInvitePreconditionFailed(t *testing.T) {
	users := &fakeUserInviter{err: &invite.PreconditionFailedError{Message: "user [a@b.com] already in service [y]"}}
	h := testAPI(t, nil, users, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/user",
		`{"sender":"x","email":"a@b.com","service_external_id":"y","role_name":"view-only"}`)

	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetInvite(t *testing.T) {
	reader := &fakeReader{invite: &models.Invite{
		Code:      "abc123",
		Email:     "someone@example.com",
		Kind:      models.InviteKindUser,
		Role:      models.Role{Name: "view-only"},
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	h := testAPI(t, nil, nil, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/invites/abc123", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got invite.Invite
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.InviteURL != "http://selfservice/invites/abc123" {
		t.Errorf("invite_url = %q", got.InviteURL)
	}
	if got.Role != "view-only" {
		t.Errorf("role = %q", got.Role)
	}
}

func TestGetInviteNotFound(t *testing.T) {
	reader := &fakeReader{err: store.ErrNotFound}
	h := testAPI(t, nil, nil, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/invites/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListServiceInvites(t *testing.T) {
	reader := &fakeReader{rows: []store.ServiceInviteRow{
		{Code: "abc", Email: "a@example.com", Role: "admin"},
		{Code: "def", Email: "b@example.com", Role: "view-only"},
	}}
	h := testAPI(t, nil, nil, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/services/svc-ext/invites", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Invites []store.ServiceInviteRow `json:"invites"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Invites) != 2 {
		t.Fatalf("invites = %d", len(body.Invites))
	}
}

func TestListServiceInvitesEmpty(t *testing.T) {
	h := testAPI(t, nil, nil, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/v1/api/services/svc-ext/invites", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"invites":[]`) {
		t.Errorf("body = %s, want empty list", rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := testAPI(t, nil, nil, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestRejectsUnknownFields(t *testing.T) {
	h := testAPI(t, nil, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/api/invites/service",
		`{"email":"a@b.com","role_name":"admin","bogus":true}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
