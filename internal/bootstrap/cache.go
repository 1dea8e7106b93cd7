package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/idgate/internal/cache"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/metrics"
)

const metricsCacheKeyPrefix = "idgate:metrics:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) core.Recorder {
	prometheusMetrics := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return prometheusMetrics
}

// initializeMetricsCache initializes the cache behind the users_active gauge.
// Only gauge counts are cached; user records never are.
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[int64], func() error, error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil, nil
	}

	// Create timeout context for cache initialization
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	var metricsCache core.Cache[int64]
	switch cfg.MetricsCacheType {
	case config.MetricsCacheTypeRedis:
		c, err := cache.NewRueidisCache[int64](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			metricsCacheKeyPrefix,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis metrics cache: %w", err)
		}
		metricsCache = c
		log.Printf("Metrics cache: redis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)

	default: // memory
		metricsCache = cache.NewMemoryCache[int64]()
		log.Println("Metrics cache: memory (single instance only)")
	}

	return metricsCache, metricsCache.Close, nil
}
