package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// setupRateLimiting returns the per-IP limiter for the sign-in endpoints, or
// a pass-through middleware when rate limiting is disabled
func setupRateLimiting(cfg *config.Config, redisClient *redis.Client) (gin.HandlerFunc, error) {
	if !cfg.EnableRateLimit {
		log.Printf("Rate limiting disabled")
		return func(c *gin.Context) { c.Next() }, nil
	}

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	if storeType == middleware.RateLimitStoreRedis {
		log.Printf("Rate limiting enabled (store: redis, %d/min per IP)", cfg.LoginRateLimit)
	} else {
		log.Printf("Rate limiting enabled (store: memory, %d/min per IP)", cfg.LoginRateLimit)
	}

	limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.LoginRateLimit,
		StoreType:         storeType,
		RedisClient:       redisClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-in rate limiter: %w", err)
	}
	return limiter, nil
}
