package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testTemplates() Templates {
	return Templates{
		InviteNewUser:         "tmpl-new",
		InviteExistingUser:    "tmpl-existing",
		ServiceInvite:         "tmpl-service",
		ServiceInviteExists:   "tmpl-exists",
		ServiceInviteDisabled: "tmpl-disabled",
	}
}

func TestSendInviteEmail(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/notifications/email" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sendResponse{ID: "notify-123"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "secret", testTemplates(), srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	id, err := c.SendInviteEmail(context.Background(), "sender@example.com", "invited@example.com", "http://selfservice/invites/abc")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "notify-123" {
		t.Errorf("id = %q", id)
	}
	if got.TemplateID != "tmpl-new" {
		t.Errorf("template = %q", got.TemplateID)
	}
	if got.EmailAddress != "invited@example.com" {
		t.Errorf("to = %q", got.EmailAddress)
	}
	if got.Personalisation["sender"] != "sender@example.com" {
		t.Errorf("sender personalisation = %q", got.Personalisation["sender"])
	}
}

func TestSendSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":["template not found"]}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", testTemplates(), srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.SendServiceInviteEmail(context.Background(), "to@example.com", "http://x"); err == nil {
		t.Fatal("expected error from gateway")
	}
}

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/templates.yaml"
	content := []byte(`
invite_new_user: a
invite_existing_user: b
service_invite: c
service_invite_user_exists: d
service_invite_user_disabled: e
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tmpl, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tmpl.ServiceInvite != "c" {
		t.Errorf("service_invite = %q", tmpl.ServiceInvite)
	}
}

func TestLoadTemplatesRejectsMissingEntry(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/templates.yaml"
	if err := os.WriteFile(path, []byte("invite_new_user: a\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadTemplates(path); err == nil {
		t.Fatal("expected error for incomplete templates file")
	}
}
