package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitStoreType defines the type of rate limit store
type RateLimitStoreType string

const (
	// RateLimitStoreMemory uses in-memory storage (single instance only)
	RateLimitStoreMemory RateLimitStoreType = "memory"
	// RateLimitStoreRedis uses Redis storage (shared across instances)
	RateLimitStoreRedis RateLimitStoreType = "redis"
)

const rateLimitKeyPrefix = "idgate:ratelimit"

var ErrRedisClientRequired = errors.New("redis rate limit store requires a client")

// RateLimitConfig holds the configuration for per-IP rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration // memory store only

	StoreType RateLimitStoreType

	// RedisClient is owned by the caller, which also closes it on shutdown
	RedisClient *redis.Client
}

// NewRateLimiter creates a per-IP rate limiter backed by the configured store
func NewRateLimiter(config RateLimitConfig) (gin.HandlerFunc, error) {
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  int64(config.RequestsPerMinute),
	}

	options := limiter.StoreOptions{
		Prefix:          rateLimitKeyPrefix,
		CleanUpInterval: config.CleanupInterval,
		MaxRetry:        limiter.DefaultMaxRetry,
	}

	var store limiter.Store
	switch config.StoreType {
	case RateLimitStoreRedis:
		if config.RedisClient == nil {
			return nil, ErrRedisClientRequired
		}
		var err error
		store, err = limiterRedis.NewStoreWithOptions(config.RedisClient, options)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
	default:
		if options.CleanUpInterval <= 0 {
			options.CleanUpInterval = limiter.DefaultCleanUpInterval
		}
		store = memory.NewStoreWithOptions(options)
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(
		instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open while the store is unreachable
			log.Printf("[RateLimit] store error, allowing request: %v", err)
			c.Next()
		}),
	), nil
}

// NewMemoryRateLimiter creates an in-memory rate limiter (single instance)
func NewMemoryRateLimiter(requestsPerMinute int) (gin.HandlerFunc, error) {
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		StoreType:         RateLimitStoreMemory,
		CleanupInterval:   5 * time.Minute,
	})
}

// NewRedisRateLimiter creates a rate limiter shared by every instance using client
func NewRedisRateLimiter(requestsPerMinute int, client *redis.Client) (gin.HandlerFunc, error) {
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		StoreType:         RateLimitStoreRedis,
		RedisClient:       client,
	})
}
