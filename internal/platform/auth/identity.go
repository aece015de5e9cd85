package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the signed-in caller. Email is the stable owner key for
// records; Name and Picture are display-only.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

type ctxKeyIdentity struct{}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	if !ok || strings.TrimSpace(v.Email) == "" {
		return Identity{}, false
	}
	return v, true
}

// CurrentIdentity resolves the caller of r. A missing or invalid session is
// reported as ok=false, never as an error.
func CurrentIdentity(r *http.Request, authenticator Authenticator) (Identity, bool) {
	if identity, ok := IdentityFromContext(r.Context()); ok {
		return identity, true
	}
	if authenticator == nil {
		return Identity{}, false
	}
	identity, err := authenticator.Authenticate(r.Context(), r)
	if err != nil || strings.TrimSpace(identity.Email) == "" {
		return Identity{}, false
	}
	return identity, true
}
