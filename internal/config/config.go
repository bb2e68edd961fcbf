package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the adminusers service.
type Config struct {
	Addr   string `env:"ADDR,default=:8080"`
	DBDSN  string `env:"DB_DSN,required"`
	NATSURL string `env:"NATS_URL"`

	NotifyBaseURL       string `env:"NOTIFY_BASE_URL"`
	NotifyAPIKey        string `env:"NOTIFY_API_KEY"`
	NotifyTemplatesFile string `env:"NOTIFY_TEMPLATES_FILE"`

	SelfserviceURL                  string `env:"SELFSERVICE_URL,required"`
	SelfserviceLoginURL             string `env:"SELFSERVICE_LOGIN_URL"`
	SelfserviceForgottenPasswordURL string `env:"SELFSERVICE_FORGOTTEN_PASSWORD_URL"`
	SupportURL                      string `env:"SUPPORT_URL"`

	InviteTTL               time.Duration `env:"INVITE_TTL,default=90m"`
	RestrictToPublicSector  bool          `env:"RESTRICT_INVITES_TO_PUBLIC_SECTOR,default=false"`

	OTLPEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.InviteTTL <= 0 {
		return errors.New("INVITE_TTL must be positive")
	}
	return nil
}

// applyDefaults derives the selfservice sub-URLs that are usually left unset.
func (c *Config) applyDefaults() {
	base := strings.TrimRight(c.SelfserviceURL, "/")
	if c.SelfserviceLoginURL == "" {
		c.SelfserviceLoginURL = base + "/login"
	}
	if c.SelfserviceForgottenPasswordURL == "" {
		c.SelfserviceForgottenPasswordURL = base + "/reset-password"
	}
}

// SelfserviceInvitesURL is the base under which invite codes become
// navigable URLs.
func (c *Config) SelfserviceInvitesURL() string {
	return strings.TrimRight(c.SelfserviceURL, "/") + "/invites"
}
