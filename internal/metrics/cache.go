package metrics

import (
	"context"
	"time"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"
)

// CacheWrapper provides a read-through cache for gauge counts. In
// multi-instance deployments a shared cache keeps the periodic gauge
// refresh from hitting the database once per instance.
type CacheWrapper struct {
	store core.MetricsStore
	cache core.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store core.MetricsStore, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// GetActiveUsersCount returns the number of active users for provider.
func (m *CacheWrapper) GetActiveUsersCount(
	ctx context.Context,
	provider models.AuthProvider,
	ttl time.Duration,
) (int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		"users:"+provider.String(),
		ttl,
		func(ctx context.Context, _ string) (int64, error) {
			return m.store.CountByProvider(ctx, provider)
		},
	)
}
