package auth

import (
	"context"
	"net/http"
)

type DevAuthenticator struct {
	identity Identity
}

func NewDevAuthenticator(cfg Config) *DevAuthenticator {
	return &DevAuthenticator{
		identity: Identity{
			Subject: cfg.DevEmail,
			Email:   cfg.DevEmail,
			Name:    cfg.DevName,
		},
	}
}

func (a *DevAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return a.identity, nil
}

// SessionHandler mirrors OIDCService.SessionHandler for AUTH_MODE=dev.
func (a *DevAuthenticator) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionBody(a.identity))
	}
}
