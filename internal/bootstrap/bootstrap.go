package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/services"
	"github.com/go-authgate/idgate/internal/store"
	"github.com/go-authgate/idgate/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      core.Recorder
	MetricsCache         core.Cache[int64]
	MetricsCacheCloser   func() error
	RateLimitRedisClient *redis.Client
	OAuthHTTPClient      *http.Client

	// Providers; Google and LDAP are nil when not configured
	TokenProvider  *token.LocalTokenProvider
	LocalProvider  *auth.LocalProvider
	GoogleProvider *auth.GoogleProvider
	LDAPProvider   *auth.LDAPProvider

	// Services
	AuthService *services.AuthService
	UserService *services.UserService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(ctx); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, cache, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	// Outbound client for the Google token and userinfo calls
	app.OAuthHTTPClient, err = createOAuthHTTPClient(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up providers and services, then creates the
// initial administrator when the store is empty
func (app *Application) initializeBusinessLayer(ctx context.Context) error {
	app.TokenProvider = token.NewLocalTokenProvider(app.Config)
	app.LocalProvider,
		app.GoogleProvider,
		app.LDAPProvider = initializeProviders(app.Config, app.DB, app.OAuthHTTPClient)

	app.AuthService, app.UserService = initializeServices(
		app.DB,
		app.TokenProvider,
		app.LocalProvider,
		app.GoogleProvider,
		app.LDAPProvider,
		app.MetricsRecorder,
	)

	return initializeAdmin(ctx, app.Config, app.DB, app.LocalProvider)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app.AuthService, app.UserService, app.DB)

	var err error
	app.Router, err = setupRouter(
		app.Config,
		app.HandlerSet,
		app.AuthService,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)
	if err != nil {
		return err
	}

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addCacheCleanupJob(m, app.MetricsCacheCloser)
	addDatabaseShutdownJob(m, app.DB)

	// Wait for graceful shutdown
	<-m.Done()
}
