package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"

	authhandler "github.com/FACorreiaa/subscription-finder/internal/domain/auth/handler"
	authservice "github.com/FACorreiaa/subscription-finder/internal/domain/auth/service"
	"github.com/FACorreiaa/subscription-finder/internal/domain/catalog"
	cataloghandler "github.com/FACorreiaa/subscription-finder/internal/domain/catalog/handler"
	"github.com/FACorreiaa/subscription-finder/internal/domain/classify"
	"github.com/FACorreiaa/subscription-finder/internal/domain/extract"
	subscriptionshandler "github.com/FACorreiaa/subscription-finder/internal/domain/subscriptions/handler"
	subscriptionsrepo "github.com/FACorreiaa/subscription-finder/internal/domain/subscriptions/repository"
	subscriptionsservice "github.com/FACorreiaa/subscription-finder/internal/domain/subscriptions/service"
	"github.com/FACorreiaa/subscription-finder/internal/domain/upload"
	uploadhandler "github.com/FACorreiaa/subscription-finder/internal/domain/upload/handler"
	userhandler "github.com/FACorreiaa/subscription-finder/internal/domain/user/handler"
	userrepo "github.com/FACorreiaa/subscription-finder/internal/domain/user/repository"

	"github.com/FACorreiaa/subscription-finder/pkg/config"
	"github.com/FACorreiaa/subscription-finder/pkg/cron"
	"github.com/FACorreiaa/subscription-finder/pkg/db"
	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
	"github.com/FACorreiaa/subscription-finder/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	SessionStore sessions.Store
	Catalog      *catalog.Catalog

	// Repositories
	UserRepo          userrepo.UserRepository
	SubscriptionsRepo subscriptionsrepo.SubscriptionRepository

	// Services
	TokenManager         *authservice.TokenManager
	AuthService          *authservice.AuthService
	SubscriptionsService *subscriptionsservice.Service
	FileStorage          storage.Storage
	Generator            *classify.GeminiGenerator
	Classifier           *classify.Classifier
	Extractor            *extract.Extractor
	Orchestrator         *upload.Orchestrator
	Scheduler            *cron.Scheduler

	// Handlers
	AuthHandler          *authhandler.AuthHandler
	UserHandler          *userhandler.UserHandler
	SubscriptionsHandler *subscriptionshandler.SubscriptionsHandler
	UploadHandler        *uploadhandler.UploadHandler
	CatalogHandler       *cataloghandler.CatalogHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Catalog: catalog.Default(),
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        int32(d.Config.Database.MinConns),
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() {
	d.UserRepo = userrepo.NewPostgresUserRepository(d.DB.Pool)
	d.SubscriptionsRepo = subscriptionsrepo.NewPostgresSubscriptionRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	if d.Config.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}

	d.SessionStore = newSessionStore(d.Config)
	d.TokenManager = authservice.NewTokenManager(d.Config.Auth.JWTSecret, d.Config.Auth.TokenTTL)
	d.AuthService = authservice.NewAuthService(d.UserRepo, d.TokenManager, d.Logger)

	d.SubscriptionsService = subscriptionsservice.NewService(d.SubscriptionsRepo, d.Catalog, d.Metrics, d.Logger)

	fileStorage, err := storage.New(&storage.Config{
		LocalPath: d.Config.Upload.TempDir,
		MaxBytes:  d.Config.Upload.MaxBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	gen, err := classify.NewGeminiGenerator(ctx, classify.GeminiConfig{
		APIKey: d.Config.Gemini.APIKey,
		Model:  d.Config.Gemini.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to init gemini client: %w", err)
	}
	d.Generator = gen
	d.Classifier = classify.NewClassifier(gen, d.Config.Gemini.Timeout, d.Metrics, d.Logger)
	d.Extractor = extract.NewDefaultExtractor(d.Logger, d.Metrics)

	d.Orchestrator = upload.NewOrchestrator(d.FileStorage, d.Extractor, d.Classifier, d.SubscriptionsService, d.Logger)

	d.Scheduler = cron.NewScheduler(d.FileStorage, d.Config.Upload.StaleAfter, d.Metrics, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	if d.Config.Auth.OAuthEnabled() {
		authhandler.ConfigureGoogle(d.SessionStore, d.Config.Auth.GoogleClientID, d.Config.Auth.GoogleClientSecret, d.Config.Auth.CallbackURL)
	} else {
		d.Logger.Warn("google oauth not configured, login is disabled")
	}

	d.AuthHandler = authhandler.NewAuthHandler(d.AuthService, d.SessionStore, authhandler.ProviderGoogle,
		d.Config.Auth.TokenTTL, d.Config.Auth.SecureCookies, d.Logger)
	d.UserHandler = userhandler.NewUserHandler(d.UserRepo, d.SessionStore, d.Logger)
	d.SubscriptionsHandler = subscriptionshandler.NewSubscriptionsHandler(d.SubscriptionsService, d.Logger)
	d.UploadHandler = uploadhandler.NewUploadHandler(d.Orchestrator, d.Config.Upload.MaxBytes, d.Logger)
	d.CatalogHandler = cataloghandler.NewCatalogHandler(d.Catalog)

	d.Logger.Info("handlers initialized")
}

func newSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Auth.SecureCookies
	store.Options.MaxAge = int(cfg.Auth.TokenTTL.Seconds())
	return store
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Generator != nil {
		if err := d.Generator.Close(); err != nil {
			d.Logger.Warn("failed to close gemini client", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
