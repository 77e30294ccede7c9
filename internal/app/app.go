// Package app wires configuration, clients and handlers into the gin router
// shared by the HTTP server, the Lambda entry point and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"design-gallery-backend/docs"
	"design-gallery-backend/internal/config"
	"design-gallery-backend/internal/database"
	"design-gallery-backend/internal/handlers"
	"design-gallery-backend/internal/logging"
	"design-gallery-backend/internal/middleware"
	"design-gallery-backend/internal/notify"
	"design-gallery-backend/internal/sanity"
	"design-gallery-backend/internal/services"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Router     *gin.Engine
	Dispatcher *notify.Dispatcher
	DB         *database.DatabaseClient
}

func NewSanityClient(cfg *config.Config) *sanity.Client {
	return sanity.NewClient(
		sanity.APIURL(cfg.SanityProjectID, cfg.SanityAPIVersion, cfg.SanityAPIHost),
		cfg.SanityDataset,
		cfg.SanityAPIToken,
		cfg.HTTPTimeout,
	)
}

// New builds the application. Missing Sanity credentials and an unreachable
// database are logged, not fatal: the affected endpoints fail per request.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	configureSwagger(cfg.BaseURL)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Dispatcher: notify.NewDispatcher(logger, cfg.NotifyTimeout),
	}

	var submitter handlers.Submitter
	if cfg.SanityConfigured() {
		crm, err := notify.NewAirtableNotifier(cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.AirtableTableName, cfg.AirtableAPIURL, cfg.NotifyTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize airtable: %w", err)
		}
		submitter = services.NewIntakeService(
			NewSanityClient(cfg),
			notify.NewDiscordNotifier(cfg.DiscordWebhookURL, cfg.NotifyTimeout),
			crm,
			a.Dispatcher,
			logger,
			cfg.ScreenshotMaxBytes,
		)
	} else {
		logger.Warn("SANITY_PROJECT_ID or SANITY_API_TOKEN not set, submissions will be rejected")
	}
	if !cfg.DiscordConfigured() {
		logger.Info("DISCORD_WEBHOOK_URL not set, discord notifications disabled")
	}
	if !cfg.AirtableConfigured() {
		logger.Info("AIRTABLE_API_KEY or AIRTABLE_BASE_ID not set, CRM sync disabled")
	}

	var consentRepo handlers.ConsentRepository
	var pinger handlers.Pinger
	if cfg.DatabaseURL != "" {
		db, err := database.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("failed to initialize database client, consent endpoints disabled", zap.Error(err))
		} else {
			if _, err := database.NewMigrator(db.DB(), logger).Run(ctx); err != nil {
				logger.Warn("migration failed", zap.Error(err))
			}
			a.DB = db
			consentRepo = db
			pinger = db
		}
	} else {
		logger.Info("DATABASE_URL not set, consent endpoints disabled")
	}

	submissions := handlers.NewSubmissionsHandler(submitter, cfg, logger)
	consent := handlers.NewConsentHandler(consentRepo, logger)
	health := handlers.NewHealthHandler(cfg, pinger)

	router := gin.New()
	router.Use(logging.Middleware(logger))
	router.Use(middleware.Recovery(logger))

	router.GET("/health", health.Health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.Any("/.netlify/functions/submit-form", submissions.Submit)

	api := router.Group("/api/v1")
	api.Any("/submissions", submissions.Submit)

	consentRoutes := api.Group("/consent")
	consentRoutes.Use(middleware.VisitorMiddleware(cfg.VisitorSigningSecret, cfg.IsProduction()))
	consentRoutes.GET("", consent.GetConsent)
	consentRoutes.PUT("", consent.PutConsent)

	a.Router = router
	return a, nil
}

// configureSwagger points the served API docs at the public host.
func configureSwagger(baseURL string) {
	if baseURL == "" {
		return
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return
	}
	docs.SwaggerInfo.Host = u.Host
	if u.Scheme == "https" {
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	}
}

// Shutdown drains detached notifications and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Dispatcher.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("notifications not drained: %w", err))
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
