package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies the HS256 session tokens handed out after a
// successful sign-in.
type Sessions struct {
	cfg    Config
	secret []byte
	now    func() time.Time
}

func NewSessions(cfg Config) (*Sessions, error) {
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSessionSecretLen)
	}
	if cfg.SessionCookieMaxAge <= 0 {
		cfg.SessionCookieMaxAge = defaultSessionAge
	}
	if strings.TrimSpace(cfg.SessionCookieName) == "" {
		cfg.SessionCookieName = defaultCookieName
	}
	return &Sessions{
		cfg:    cfg,
		secret: []byte(cfg.SessionSecret),
		now:    time.Now,
	}, nil
}

func (s *Sessions) Issue(identity Identity) (string, time.Time, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return "", time.Time{}, errors.New("identity email is required")
	}
	subject := strings.TrimSpace(identity.Subject)
	if subject == "" {
		subject = email
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.SessionCookieMaxAge)
	claims := sessionClaims{
		Email:   email,
		Name:    identity.Name,
		Picture: identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.SessionIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *Sessions) Parse(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.SessionIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.SessionIssuer))
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("parse session: %w", err)
	}

	email := strings.TrimSpace(claims.Email)
	if email == "" {
		return Identity{}, errors.New("session has no email")
	}
	return Identity{
		Subject: claims.Subject,
		Email:   email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// Authenticate reads the bearer header first, then the session cookie.
func (s *Sessions) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	rawToken := tokenFromHeader(r)
	if rawToken == "" {
		rawToken = tokenFromCookie(r, s.cfg.SessionCookieName)
	}
	if rawToken == "" {
		return Identity{}, ErrUnauthenticated
	}
	return s.Parse(rawToken)
}

func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	setCookie(w, s.cfg.SessionCookieName, token, s.cfg.SessionCookieMaxAge, s.cfg)
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	clearCookie(w, s.cfg.SessionCookieName, s.cfg)
}
