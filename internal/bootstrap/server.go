package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/metrics"
	"github.com/go-authgate/idgate/internal/models"
	"github.com/go-authgate/idgate/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	})
}

// addDatabaseShutdownJob closes the connection pool after the server stops
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store) {
	m.AddShutdownJob(func() error {
		log.Println("Closing database connection...")
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
			return err
		}
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	prometheusMetrics core.Recorder,
	metricsCache core.Cache[int64],
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		// Create cache wrapper
		cacheWrapper := metrics.NewCacheWrapper(db, metricsCache)

		// Update immediately on startup
		updateGaugeMetricsWithCache(
			ctx,
			cacheWrapper,
			prometheusMetrics,
			cfg.MetricsGaugeUpdateInterval,
		)

		for {
			select {
			case <-ticker.C:
				updateGaugeMetricsWithCache(
					ctx,
					cacheWrapper,
					prometheusMetrics,
					cfg.MetricsGaugeUpdateInterval,
				)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCacheCleanupJob adds cache cleanup on shutdown
func addCacheCleanupJob(m *graceful.Manager, metricsCacheCloser func() error) {
	if metricsCacheCloser == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := metricsCacheCloser(); err != nil {
			log.Printf("Error closing metrics cache: %v", err)
		} else {
			log.Println("Metrics cache closed")
		}
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows
func (e *errorLogger) logIfNeeded(operation string, err error) {
	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]

	if !exists || now.Sub(lastTime) >= e.rateLimitWindow {
		log.Printf("Database query failed for %s: %v (further errors will be suppressed for %v)",
			operation, err, e.rateLimitWindow)
		e.lastErrorTimes[operation] = now
	}
}

var gaugeErrorLogger = newErrorLogger()

// gaugeProviders are the providers reported by the users_active gauge
var gaugeProviders = []models.AuthProvider{
	models.AuthProviderLocal,
	models.AuthProviderGoogle,
	models.AuthProviderDirectory,
}

// updateGaugeMetricsWithCache updates gauge metrics using a cache-backed store.
// This reduces database load in multi-instance deployments by caching query results.
// The cache TTL should match the update interval to ensure consistent behavior.
func updateGaugeMetricsWithCache(
	ctx context.Context,
	cacheWrapper *metrics.CacheWrapper,
	m core.Recorder,
	cacheTTL time.Duration,
) {
	for _, provider := range gaugeProviders {
		count, err := cacheWrapper.GetActiveUsersCount(ctx, provider, cacheTTL)
		if err != nil {
			operation := "count_users_" + provider.String()
			m.RecordDatabaseQueryError(operation)
			gaugeErrorLogger.logIfNeeded(operation, err)
			continue
		}
		m.SetActiveUsersCount(provider.String(), int(count))
	}
}
