package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vendorbook/vendorbook/internal/platform/env"
)

const serviceName = "vendorbook"

type storeKind string

const (
	storePostgres storeKind = "postgres"
	storeMemory   storeKind = "memory"
)

type serverConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	Store           storeKind
	MetricsPrefix   string
	ReadyTimeout    time.Duration
}

func serverConfigFromEnv() (serverConfig, error) {
	shutdownTimeout, err := env.Duration("VENDORS_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return serverConfig{}, err
	}
	readyTimeout, err := env.Duration("VENDORS_READY_TIMEOUT", 750*time.Millisecond)
	if err != nil {
		return serverConfig{}, err
	}

	cfg := serverConfig{
		Addr:            env.String("VENDORS_HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,
		Store:           storeKind(strings.ToLower(strings.TrimSpace(env.String("VENDORS_STORE", string(storePostgres))))),
		MetricsPrefix:   env.String("VENDORS_METRICS_PREFIX", serviceName),
		ReadyTimeout:    readyTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

func (c serverConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("VENDORS_HTTP_ADDR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("VENDORS_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.ReadyTimeout <= 0 {
		return errors.New("VENDORS_READY_TIMEOUT must be positive")
	}
	switch c.Store {
	case storePostgres, storeMemory:
	default:
		return fmt.Errorf("VENDORS_STORE must be one of: postgres, memory (got %q)", c.Store)
	}
	return nil
}
