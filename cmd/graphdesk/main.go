package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/prometheus/client_golang/prometheus"

	postgresadapter "github.com/ericfisherdev/graphdesk/internal/adapter/driven/postgres"
	registryadapter "github.com/ericfisherdev/graphdesk/internal/adapter/driven/registry"
	sessionadapter "github.com/ericfisherdev/graphdesk/internal/adapter/driven/session"
	sqliteadapter "github.com/ericfisherdev/graphdesk/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/graphdesk/internal/adapter/driving/http"
	"github.com/ericfisherdev/graphdesk/internal/application"
	"github.com/ericfisherdev/graphdesk/internal/config"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
	"github.com/ericfisherdev/graphdesk/internal/logging"
	"github.com/ericfisherdev/graphdesk/internal/metrics"
	"github.com/ericfisherdev/graphdesk/internal/secretbox"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_driver", cfg.DBDriver,
		"registry_url", cfg.RegistryURL,
		"encryption_key_set", cfg.HasEncryptionKey(),
		"version", version,
	)
	if !cfg.HasEncryptionKey() {
		logger.Warn("ENCRYPTION_KEY is not set, API key storage is disabled; run keygen to create one")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the credential store and apply migrations.
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Build the handler graph.
	promReg := metrics.NewRegistry()
	handler, err := newHandler(cfg, store, promReg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RegistryTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 5. Wait for a shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// 6. Graceful shutdown with 10s drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openStore opens the configured database, runs its migrations and returns
// the API key store with a function that closes the database.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.APIKeyStore, func() error, error) {
	var box *secretbox.Box
	if cfg.HasEncryptionKey() {
		b, err := secretbox.New(cfg.Key)
		if err != nil {
			return nil, nil, err
		}
		box = b
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgresadapter.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgresadapter.RunMigrations(db.DB.DB, logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("database ready", "driver", cfg.DBDriver)
		return postgresadapter.NewAPIKeyRepo(db, box), db.Close, nil

	default:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqliteadapter.RunMigrations(db.Writer, logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("database ready", "driver", cfg.DBDriver, "path", cfg.DBPath)
		return sqliteadapter.NewAPIKeyRepo(db, box), db.Close, nil
	}
}

// newHandler wires the registry transport, session verifier and services
// into the middleware-wrapped HTTP handler.
func newHandler(cfg *config.Config, store driven.APIKeyStore, promReg *prometheus.Registry, logger *slog.Logger) (http.Handler, error) {
	m, err := metrics.NewMetrics(promReg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	transport, err := registryadapter.NewTransport(registryadapter.Options{
		Endpoint:      cfg.RegistryURL,
		ClientName:    cfg.RegistryClientName,
		ClientVersion: version,
		Timeout:       cfg.RegistryTimeout,
		Logger:        logger,
		Metrics:       m,
	})
	if err != nil {
		return nil, err
	}

	verifier, err := sessionadapter.NewVerifier(sessionadapter.Options{
		JWKSURL:           cfg.SessionJWKSURL,
		PublicKeyPEM:      cfg.SessionPublicKey,
		Issuer:            cfg.SessionIssuer,
		AuthorizedParties: cfg.SessionAuthorizedParties,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	provider := application.NewRegistryClientProvider(store, transport)
	apiKeySvc := application.NewAPIKeyService(store, provider, logger)
	registrySvc := application.NewRegistryService(provider)

	apiHandler := httphandler.NewHandler(apiKeySvc, registrySvc, verifier, cfg.SessionCookie, promReg, logger)
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	return httphandler.ApplyMiddleware(mux, logger, httphandler.MiddlewareOptions{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		RateWindow:  cfg.RateWindow,
		Metrics:     m,
	}), nil
}
