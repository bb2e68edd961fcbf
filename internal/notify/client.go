// Package notify sends templated emails through the notification gateway.
//
// The gateway accepts a template id plus personalisation values and returns a
// delivery identifier. Delivery itself is asynchronous on the gateway side;
// callers treat dispatch as best-effort.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP client for the notification gateway.
type Client struct {
	baseURL    string
	apiKey     string
	templates  Templates
	httpClient *http.Client
}

// NewClient creates a gateway client. httpClient may be nil, in which case a
// client with a sensible timeout is used.
func NewClient(baseURL, apiKey string, templates Templates, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("notify base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		templates:  templates,
		httpClient: httpClient,
	}, nil
}

type sendRequest struct {
	TemplateID      string            `json:"template_id"`
	EmailAddress    string            `json:"email_address"`
	Personalisation map[string]string `json:"personalisation,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

func (c *Client) send(ctx context.Context, templateID, to string, personalisation map[string]string) (string, error) {
	body, err := json.Marshal(sendRequest{
		TemplateID:      templateID,
		EmailAddress:    to,
		Personalisation: personalisation,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/notifications/email", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("notification gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	return out.ID, nil
}

// SendInviteEmail emails a prospective new user an invitation to join a
// service, naming the sender.
func (c *Client) SendInviteEmail(ctx context.Context, senderEmail, to, inviteURL string) (string, error) {
	return c.send(ctx, c.templates.InviteNewUser, to, map[string]string{
		"sender": senderEmail,
		"link":   inviteURL,
	})
}

// SendInviteExistingUserEmail emails an existing user an invitation to join a
// further service.
func (c *Client) SendInviteExistingUserEmail(ctx context.Context, senderEmail, to, inviteURL, serviceName string) (string, error) {
	return c.send(ctx, c.templates.InviteExistingUser, to, map[string]string{
		"sender":  senderEmail,
		"link":    inviteURL,
		"service": serviceName,
	})
}

// SendServiceInviteEmail emails an invitation to found a brand-new service.
func (c *Client) SendServiceInviteEmail(ctx context.Context, to, inviteURL string) (string, error) {
	return c.send(ctx, c.templates.ServiceInvite, to, map[string]string{
		"link": inviteURL,
	})
}

// SendServiceInviteUserExistsEmail tells an active account holder that
// someone tried to re-register their email.
func (c *Client) SendServiceInviteUserExistsEmail(ctx context.Context, to, loginURL, forgottenPasswordURL, supportURL string) (string, error) {
	return c.send(ctx, c.templates.ServiceInviteExists, to, map[string]string{
		"signin_link":          loginURL,
		"forgotten_password_link": forgottenPasswordURL,
		"feedback_link":        supportURL,
	})
}

// SendServiceInviteUserDisabledEmail tells a disabled account holder to
// contact support.
func (c *Client) SendServiceInviteUserDisabledEmail(ctx context.Context, to, supportURL string) (string, error) {
	return c.send(ctx, c.templates.ServiceInviteDisabled, to, map[string]string{
		"feedback_link": supportURL,
	})
}
