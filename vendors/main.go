package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vendorbook/vendorbook/internal/apidoc"
	"github.com/vendorbook/vendorbook/internal/platform/auth"
	"github.com/vendorbook/vendorbook/internal/platform/env"
	"github.com/vendorbook/vendorbook/internal/platform/httpserver"
	"github.com/vendorbook/vendorbook/internal/platform/metrics"
	"github.com/vendorbook/vendorbook/internal/platform/postgres"
	"github.com/vendorbook/vendorbook/internal/repo"
	"github.com/vendorbook/vendorbook/internal/repo/memory"
	repopg "github.com/vendorbook/vendorbook/internal/repo/postgres"
	vendorsvc "github.com/vendorbook/vendorbook/internal/service/vendors"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := env.Load(); err != nil {
		logger.Error("invalid .env file", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := serverConfigFromEnv()
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	if _, err := apidoc.Load(ctx); err != nil {
		logger.Error("invalid api document", "error", err)
		os.Exit(2)
	}

	m := metrics.New(cfg.MetricsPrefix)

	var (
		store     repo.VendorRepository
		readiness []httpserver.ReadinessCheck
	)
	switch cfg.Store {
	case storePostgres:
		dbCfg, err := postgres.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid database config", "error", err)
			os.Exit(2)
		}
		db, err := postgres.Open(ctx, dbCfg)
		if err != nil {
			logger.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		if err := repopg.Migrate(ctx, db); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		store = repopg.NewVendorStore(db)
		readiness = append(readiness, httpserver.ReadinessCheck{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				return postgres.Ping(ctx, db, cfg.ReadyTimeout)
			},
		})
	case storeMemory:
		logger.Warn("using in-memory vendor store; records are lost on restart")
		store = memory.NewVendorStore()
	}

	service, err := vendorsvc.NewService(store, m)
	if err != nil {
		logger.Error("vendor service init failed", "error", err)
		os.Exit(2)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}

	var (
		authenticator auth.Authenticator
		authRoutes    func(*http.ServeMux)
	)
	switch authCfg.Mode {
	case auth.ModeDev:
		logger.Warn("AUTH_MODE=dev: every request is signed in as the dev identity", "email", authCfg.DevEmail)
		dev := auth.NewDevAuthenticator(authCfg)
		authenticator = dev
		authRoutes = devRoutes(dev)
	case auth.ModeOIDC:
		sessions, err := auth.NewSessions(authCfg)
		if err != nil {
			logger.Error("invalid session config", "error", err)
			os.Exit(2)
		}
		oidcService, err := auth.NewOIDCService(ctx, authCfg, sessions, logger, m)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(1)
		}
		login, err := oidcService.LoginHandler()
		if err != nil {
			logger.Error("oidc login handler init failed", "error", err)
			os.Exit(2)
		}
		callback, err := oidcService.CallbackHandler()
		if err != nil {
			logger.Error("oidc callback handler init failed", "error", err)
			os.Exit(2)
		}
		authenticator = oidcService
		authRoutes = oidcRoutes(oidcService, login, callback)
	default:
		logger.Error("unsupported auth mode", "mode", authCfg.Mode)
		os.Exit(2)
	}

	handler := newHandler(handlerDeps{
		logger:        logger,
		metrics:       m,
		api:           newVendorsAPI(logger, service, authenticator),
		authenticator: authenticator,
		authRoutes:    authRoutes,
		readiness:     readiness,
	})

	if err := httpserver.Run(ctx, logger, httpserver.Config{
		Service:         serviceName,
		Addr:            cfg.Addr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, handler); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
