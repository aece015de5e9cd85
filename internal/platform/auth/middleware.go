package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware rejects requests without a valid identity before they reach the
// wrapped handler. Paths under SkipPrefixes pass through untouched.
type Middleware struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	SkipPrefixes  []string
}

func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range m.SkipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		if m.Authenticator == nil {
			m.deny(w, r, "no_authenticator", errors.New("authenticator not configured"))
			return
		}
		identity, err := m.Authenticator.Authenticate(r.Context(), r)
		if err != nil {
			reason := "invalid_token"
			if errors.Is(err, ErrUnauthenticated) {
				reason = "unauthenticated"
			}
			m.deny(w, r, reason, err)
			return
		}
		if strings.TrimSpace(identity.Email) == "" {
			m.deny(w, r, "missing_email", errors.New("identity has no email"))
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, reason string, err error) {
	requestID := r.Header.Get("X-Request-Id")
	if m.Logger != nil {
		m.Logger.Warn("auth deny",
			"reason", reason,
			"status", http.StatusUnauthorized,
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	WriteUnauthorized(w, requestID)
}

// WriteUnauthorized is the single 401 body shape used by the middleware and
// by handlers that resolve the caller themselves.
func WriteUnauthorized(w http.ResponseWriter, requestID string) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error":      "Unauthorized",
		"code":       "auth_required",
		"request_id": requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}
