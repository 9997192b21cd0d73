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

	"github.com/aussiebroadwan/yarnhub/internal/cache"
	httpapi "github.com/aussiebroadwan/yarnhub/internal/http"
	"github.com/aussiebroadwan/yarnhub/internal/mail"
	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/internal/store/drivers/sqlite"
	"github.com/aussiebroadwan/yarnhub/pkg/cryptox"
	"github.com/aussiebroadwan/yarnhub/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the yarnhub service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	blacklist cache.Blacklist
	keys      *SessionKeys
	mailer    mail.Mailer

	// Services
	sessionService      *service.SessionService
	credentialService   *service.CredentialService
	authService         *service.AuthService
	userService         *service.UserService
	storyService        *service.StoryService
	adminService        *service.AdminService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "yarnhub",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initBlacklist(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	keys, err := InitSessionKeys(app.cfg, app.logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keys = keys

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("yarnhub starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down yarnhub...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	app.close()

	app.logger.Info("yarnhub stopped")
	return nil
}

func (app *Application) close() {
	if app.blacklist != nil {
		if err := app.blacklist.Close(); err != nil {
			app.logger.Error("error closing revocation cache", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
		}
	}
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")

	if empty, err := db.Users().IsEmpty(context.Background()); err == nil && empty {
		app.logger.Info("database has no users yet; promote the first account with a direct role update")
	}
	return nil
}

// initBlacklist connects the revocation cache: Redis when configured, the
// in-process TTL map otherwise.
func (app *Application) initBlacklist() error {
	if app.cfg.RedisAddr == "" {
		app.logger.Warn("no redis configured, using in-process revocation cache; revocations do not survive restarts")
		app.blacklist = cache.NewMemory()
		return nil
	}

	bl, err := cache.NewRedis(app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.blacklist = bl

	app.logger.Info("revocation cache connected", "addr", app.cfg.RedisAddr)
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.SMTPAddr == "" {
		app.logger.Warn("no SMTP relay configured, codes will be logged instead of mailed")
		app.mailer = &mail.LogMailer{Logger: app.logger}
		return
	}

	app.mailer = &mail.SMTPMailer{
		Addr:     app.cfg.SMTPAddr,
		From:     app.cfg.SMTPFrom,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
	}
	app.logger.Info("SMTP mailer configured", "addr", app.cfg.SMTPAddr)
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Signer:     app.keys.Signer,
		Verifier:   app.keys.Verifier,
		Blacklist:  app.blacklist,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.credentialService = &service.CredentialService{Store: app.db}

	app.authService = &service.AuthService{
		Store:       app.db,
		Sessions:    app.sessionService,
		Credentials: app.credentialService,
		Mailer:      app.mailer,
	}

	app.userService = &service.UserService{Store: app.db}
	app.storyService = &service.StoryService{Store: app.db}
	app.adminService = &service.AdminService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.KeySet,
		BuildVersion,
		app.db,
		app.blacklist,
		httpapi.CookieConfig{
			Secure:   app.cfg.CookieSecure,
			SameSite: app.cfg.SameSite(),
		},
		app.logger,
	)

	// Wire services to router
	router.SessionService = app.sessionService
	router.AuthService = app.authService
	router.UserService = app.userService
	router.StoryService = app.storyService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
