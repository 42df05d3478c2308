package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devoptimist/builder/internal/api/cache"
	httpapi "github.com/devoptimist/builder/internal/api/http"
	"github.com/devoptimist/builder/internal/api/metrics"
	"github.com/devoptimist/builder/internal/api/service"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/internal/api/store/drivers/postgres"
	"github.com/devoptimist/builder/internal/api/store/drivers/sqlite"
	"github.com/devoptimist/builder/pkg/accesstoken"
	"github.com/devoptimist/builder/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the profile API with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions cache.SessionCache
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Services
	authorizationGate *service.AuthorizationGate
	tokenIssuer       *service.TokenIssuer
	tokenRevoker      *service.TokenRevoker
	profileService    *service.ProfileService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "builder-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	sessions, err := cache.NewRistretto(cfg.CacheMaxItems)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize session cache: %w", err)
	}
	app.sessions = sessions

	app.registry = prometheus.NewRegistry()
	app.metrics = metrics.New(app.registry)

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("builder api starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down builder api...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.sessions.Close(); err != nil {
		app.logger.Error("error closing session cache", "error", err)
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("builder api stopped")
	return nil
}

// initDatabase initializes the configured database driver and applies migrations
func (app *Application) initDatabase() error {
	switch app.cfg.DatabaseDriver {
	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return fmt.Errorf("BUILDER_DATABASE_URL is required for the postgres driver")
		}
		db, err := postgres.NewStore(context.Background(), app.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	case "sqlite":
		host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(host)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.DatabaseDriver)
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	generator, err := accesstoken.NewGenerator(app.cfg.SigningKeyFile, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	app.authorizationGate = &service.AuthorizationGate{
		Store:   app.db,
		Cache:   app.sessions,
		Metrics: app.metrics,
	}
	app.tokenIssuer = &service.TokenIssuer{
		Store:     app.db,
		Cache:     app.sessions,
		Generator: generator,
		Metrics:   app.metrics,
	}
	app.tokenRevoker = &service.TokenRevoker{
		Store:   app.db,
		Cache:   app.sessions,
		Metrics: app.metrics,
	}
	app.profileService = &service.ProfileService{Store: app.db}

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.registry, app.logger)

	// Wire services to router
	router.AuthorizationGate = app.authorizationGate
	router.TokenIssuer = app.tokenIssuer
	router.TokenRevoker = app.tokenRevoker
	router.ProfileService = app.profileService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
