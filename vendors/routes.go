package main

import (
	"log/slog"
	"net/http"

	"github.com/vendorbook/vendorbook/internal/apidoc"
	"github.com/vendorbook/vendorbook/internal/platform/auth"
	"github.com/vendorbook/vendorbook/internal/platform/httpserver"
	"github.com/vendorbook/vendorbook/internal/platform/metrics"
)

// publicPrefixes bypass the session check.
var publicPrefixes = []string{"/healthz", "/readyz", "/metrics", "/openapi.yaml", "/auth/"}

type handlerDeps struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	api           *vendorsAPI
	authenticator auth.Authenticator
	authRoutes    func(mux *http.ServeMux)
	readiness     []httpserver.ReadinessCheck
}

func newHandler(d handlerDeps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpserver.Healthz(serviceName))
	mux.HandleFunc("GET /readyz", httpserver.ReadyzWithChecks(serviceName, d.readiness...))
	mux.Handle("GET /metrics", d.metrics.Handler())
	mux.HandleFunc("GET /openapi.yaml", apidoc.Handler())
	if d.authRoutes != nil {
		d.authRoutes(mux)
	}
	d.api.register(mux)

	protected := auth.Middleware{
		Logger:        d.logger,
		Authenticator: d.authenticator,
		SkipPrefixes:  publicPrefixes,
	}.Wrap(mux)
	return httpserver.Wrap(d.logger, d.metrics, mux, protected)
}

func oidcRoutes(svc *auth.OIDCService, login, callback http.HandlerFunc) func(*http.ServeMux) {
	return func(mux *http.ServeMux) {
		mux.HandleFunc("GET /auth/login", login)
		mux.HandleFunc("GET /auth/callback", callback)
		mux.HandleFunc("POST /auth/logout", svc.LogoutHandler())
		mux.HandleFunc("GET /auth/logout", svc.LogoutHandler())
		mux.HandleFunc("GET /auth/session", svc.SessionHandler())
	}
}

func devRoutes(dev *auth.DevAuthenticator) func(*http.ServeMux) {
	logout := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{\"status\":\"ok\"}\n"))
	}
	return func(mux *http.ServeMux) {
		mux.HandleFunc("POST /auth/logout", logout)
		mux.HandleFunc("GET /auth/logout", logout)
		mux.HandleFunc("GET /auth/session", dev.SessionHandler())
	}
}
