package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	stateCookie    = "vendorbook_oidc_state"
	verifierCookie = "vendorbook_oidc_verifier"
	nonceCookie    = "vendorbook_oidc_nonce"
	returnToCookie = "vendorbook_return_to"

	exchangeTimeout = 10 * time.Second
)

// SignInObserver is told the outcome of every callback. *metrics.Metrics
// satisfies it.
type SignInObserver interface {
	ObserveSignIn(result string)
}

type OIDCService struct {
	cfg          Config
	verifier     *oidc.IDTokenVerifier
	oauth2Config oauth2.Config
	sessions     *Sessions
	logger       *slog.Logger
	observer     SignInObserver
}

func NewOIDCService(ctx context.Context, cfg Config, sessions *Sessions, logger *slog.Logger, observer SignInObserver) (*OIDCService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode != ModeOIDC {
		return nil, fmt.Errorf("auth mode must be oidc (got %q)", cfg.Mode)
	}
	if sessions == nil {
		return nil, errors.New("sessions are required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
	return newOIDCService(cfg, verifier, provider.Endpoint(), sessions, logger, observer), nil
}

func newOIDCService(cfg Config, verifier *oidc.IDTokenVerifier, endpoint oauth2.Endpoint, sessions *Sessions, logger *slog.Logger, observer SignInObserver) *OIDCService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OIDCService{
		cfg:      cfg,
		verifier: verifier,
		oauth2Config: oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.OIDCRedirectURL,
			Scopes:       cfg.OIDCScopes,
		},
		sessions: sessions,
		logger:   logger,
		observer: observer,
	}
}

// Authenticate validates our own session token, not the provider's ID token.
func (s *OIDCService) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return s.sessions.Authenticate(ctx, r)
}

func (s *OIDCService) LoginHandler() (http.HandlerFunc, error) {
	if err := s.cfg.ValidateForLogin(); err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		returnTo := safeReturnTo(r.URL.Query().Get("return_to"))

		state, err := randomBase64URL(32)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal_error"})
			return
		}
		verifier := oauth2.GenerateVerifier()
		nonce, err := randomBase64URL(32)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal_error"})
			return
		}

		setShortCookie(w, stateCookie, state, s.cfg)
		setShortCookie(w, verifierCookie, verifier, s.cfg)
		setShortCookie(w, nonceCookie, nonce, s.cfg)
		setShortCookie(w, returnToCookie, returnTo, s.cfg)

		redirectURL := s.oauth2Config.AuthCodeURL(
			state,
			oauth2.AccessTypeOnline,
			oauth2.S256ChallengeOption(verifier),
			oidc.Nonce(nonce),
		)
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}, nil
}

type idTokenClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Nonce         string `json:"nonce"`
}

func (s *OIDCService) CallbackHandler() (http.HandlerFunc, error) {
	if err := s.cfg.ValidateForLogin(); err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(status int, reason string, err error) {
			s.observe(reason)
			attrs := []any{"reason", reason, "request_id", r.Header.Get("X-Request-Id")}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			s.logger.Warn("sign-in failed", attrs...)
			writeJSON(w, status, map[string]any{"error": reason})
		}

		if providerErr := r.URL.Query().Get("error"); providerErr != "" {
			fail(http.StatusUnauthorized, "provider_denied", errors.New(providerErr))
			return
		}

		stateQuery := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")
		if stateQuery == "" || code == "" {
			fail(http.StatusBadRequest, "missing_code_or_state", nil)
			return
		}

		if state := tokenFromCookie(r, stateCookie); state == "" || state != stateQuery {
			fail(http.StatusBadRequest, "invalid_state", nil)
			return
		}

		codeVerifier := tokenFromCookie(r, verifierCookie)
		nonce := tokenFromCookie(r, nonceCookie)
		returnTo := safeReturnTo(tokenFromCookie(r, returnToCookie))
		if codeVerifier == "" || nonce == "" {
			fail(http.StatusBadRequest, "missing_pkce_or_nonce", nil)
			return
		}

		exchangeCtx, cancel := context.WithTimeout(r.Context(), exchangeTimeout)
		defer cancel()

		token, err := s.oauth2Config.Exchange(exchangeCtx, code, oauth2.VerifierOption(codeVerifier))
		if err != nil {
			fail(http.StatusUnauthorized, "token_exchange_failed", err)
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok || rawIDToken == "" {
			fail(http.StatusUnauthorized, "missing_id_token", nil)
			return
		}

		idToken, err := s.verifier.Verify(exchangeCtx, rawIDToken)
		if err != nil {
			fail(http.StatusUnauthorized, "invalid_id_token", err)
			return
		}

		var claims idTokenClaims
		if err := idToken.Claims(&claims); err != nil {
			fail(http.StatusUnauthorized, "invalid_id_token_claims", err)
			return
		}
		if claims.Nonce == "" || claims.Nonce != nonce {
			fail(http.StatusUnauthorized, "invalid_nonce", nil)
			return
		}
		email := strings.TrimSpace(claims.Email)
		if email == "" {
			fail(http.StatusUnauthorized, "missing_email", nil)
			return
		}
		if claims.EmailVerified != nil && !*claims.EmailVerified {
			fail(http.StatusUnauthorized, "email_not_verified", nil)
			return
		}

		session, _, err := s.sessions.Issue(Identity{
			Subject: claims.Subject,
			Email:   email,
			Name:    claims.Name,
			Picture: claims.Picture,
		})
		if err != nil {
			s.observe("session_issue_failed")
			s.logger.Error("issue session", "request_id", r.Header.Get("X-Request-Id"), "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal_error"})
			return
		}

		s.sessions.SetCookie(w, session)
		clearCookie(w, stateCookie, s.cfg)
		clearCookie(w, verifierCookie, s.cfg)
		clearCookie(w, nonceCookie, s.cfg)
		clearCookie(w, returnToCookie, s.cfg)

		s.observe("ok")
		s.logger.Info("signed in", "request_id", r.Header.Get("X-Request-Id"), "email", email)
		http.Redirect(w, r, returnTo, http.StatusFound)
	}, nil
}

func (s *OIDCService) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.ClearCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

func (s *OIDCService) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := CurrentIdentity(r, s)
		if !ok {
			WriteUnauthorized(w, r.Header.Get("X-Request-Id"))
			return
		}
		writeJSON(w, http.StatusOK, sessionBody(identity))
	}
}

func (s *OIDCService) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveSignIn(result)
	}
}

func sessionBody(identity Identity) map[string]any {
	return map[string]any{
		"email":   identity.Email,
		"name":    identity.Name,
		"picture": identity.Picture,
	}
}

func tokenFromHeader(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func tokenFromCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func randomBase64URL(nBytes int) (string, error) {
	if nBytes <= 0 {
		return "", errors.New("nBytes must be positive")
	}
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// safeReturnTo keeps redirects on this origin. The query string survives so
// a user can land back on a specific list page.
func safeReturnTo(raw string) string {
	if raw == "" {
		return "/vendors"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/vendors"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, "\\") {
		return "/vendors"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

func setShortCookie(w http.ResponseWriter, name string, value string, cfg Config) {
	setCookie(w, name, value, 10*time.Minute, cfg)
}

func clearCookie(w http.ResponseWriter, name string, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.SessionCookieSecure,
		SameSite: parseSameSite(cfg.SessionCookieSameSite),
	})
}

func setCookie(w http.ResponseWriter, name string, value string, ttl time.Duration, cfg Config) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SessionCookieSecure,
		SameSite: parseSameSite(cfg.SessionCookieSameSite),
	})
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
