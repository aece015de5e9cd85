package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vendorbook/vendorbook/internal/platform/env"
)

type Mode string

const (
	ModeOIDC Mode = "oidc"
	ModeDev  Mode = "dev"
)

const (
	defaultIssuerURL    = "https://accounts.google.com"
	defaultCookieName   = "vendorbook_session"
	defaultSessionAge   = 30 * 24 * time.Hour
	maxSessionAge       = 10 * 365 * 24 * time.Hour
	minSessionSecretLen = 32
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Config struct {
	Mode Mode

	SessionSecret         string
	SessionIssuer         string
	SessionCookieName     string
	SessionCookieSecure   bool
	SessionCookieMaxAge   time.Duration
	SessionCookieSameSite string

	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCScopes       []string

	DevEmail string
	DevName  string
}

func ConfigFromEnv() (Config, error) {
	modeRaw := strings.ToLower(strings.TrimSpace(env.String("AUTH_MODE", string(ModeOIDC))))
	var mode Mode
	switch modeRaw {
	case string(ModeOIDC):
		mode = ModeOIDC
	case string(ModeDev):
		mode = ModeDev
	default:
		return Config{}, fmt.Errorf("AUTH_MODE must be one of: oidc, dev (got %q)", modeRaw)
	}

	sessionCookieSecure, err := env.Bool("AUTH_SESSION_COOKIE_SECURE", true)
	if err != nil {
		return Config{}, err
	}
	maxAgeSeconds, err := env.Int("AUTH_SESSION_MAX_AGE_SECONDS", int(defaultSessionAge.Seconds()))
	if err != nil {
		return Config{}, err
	}
	// Checked before the multiplication below, which would overflow.
	if maxAgeSeconds <= 0 || maxAgeSeconds > int(maxSessionAge/time.Second) {
		return Config{}, fmt.Errorf("AUTH_SESSION_MAX_AGE_SECONDS must be between 1 and %d", int(maxSessionAge/time.Second))
	}

	cfg := Config{
		Mode:                  mode,
		SessionSecret:         env.String("AUTH_SESSION_SECRET", ""),
		SessionIssuer:         env.String("AUTH_SESSION_ISSUER", "vendorbook"),
		SessionCookieName:     env.String("AUTH_SESSION_COOKIE_NAME", defaultCookieName),
		SessionCookieSecure:   sessionCookieSecure,
		SessionCookieMaxAge:   time.Duration(maxAgeSeconds) * time.Second,
		SessionCookieSameSite: env.String("AUTH_SESSION_COOKIE_SAMESITE", "Lax"),
		OIDCIssuerURL:         env.String("OIDC_ISSUER_URL", defaultIssuerURL),
		OIDCClientID:          env.String("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:      env.String("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:       env.String("OIDC_REDIRECT_URL", ""),
		OIDCScopes:            env.Fields("OIDC_SCOPES", []string{"openid", "profile", "email"}),
		DevEmail:              env.String("DEV_AUTH_EMAIL", "dev-user@example.local"),
		DevName:               env.String("DEV_AUTH_NAME", "Dev User"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return errors.New("AUTH_SESSION_COOKIE_NAME is required")
	}
	if c.SessionCookieMaxAge <= 0 || c.SessionCookieMaxAge > maxSessionAge {
		return errors.New("AUTH_SESSION_MAX_AGE_SECONDS must be positive and at most 10 years")
	}
	if strings.TrimSpace(c.SessionIssuer) == "" {
		return errors.New("AUTH_SESSION_ISSUER is required")
	}

	switch c.Mode {
	case ModeOIDC:
		if len(c.SessionSecret) < minSessionSecretLen {
			return fmt.Errorf("AUTH_SESSION_SECRET must be at least %d bytes when AUTH_MODE=oidc", minSessionSecretLen)
		}
		if strings.TrimSpace(c.OIDCIssuerURL) == "" {
			return errors.New("OIDC_ISSUER_URL is required when AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.OIDCClientID) == "" {
			return errors.New("OIDC_CLIENT_ID is required when AUTH_MODE=oidc")
		}
	case ModeDev:
		if strings.TrimSpace(c.DevEmail) == "" {
			return errors.New("DEV_AUTH_EMAIL is required when AUTH_MODE=dev")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Mode)
	}
	return nil
}

func (c Config) ValidateForLogin() error {
	if c.Mode != ModeOIDC {
		return fmt.Errorf("login requires AUTH_MODE=oidc (got %q)", c.Mode)
	}
	if strings.TrimSpace(c.OIDCClientSecret) == "" {
		return errors.New("OIDC_CLIENT_SECRET is required for login endpoints")
	}
	if strings.TrimSpace(c.OIDCRedirectURL) == "" {
		return errors.New("OIDC_REDIRECT_URL is required for login endpoints")
	}
	return nil
}
