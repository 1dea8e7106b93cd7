package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newLimitedRouter(t *testing.T, limiter gin.HandlerFunc, body string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limiter)
	router.POST("/auth/signin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": body})
	})
	return router
}

func signinFrom(router http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewMemoryRateLimiter(t *testing.T) {
	limiter, err := NewMemoryRateLimiter(5)
	require.NoError(t, err)
	router := newLimitedRouter(t, limiter, "ok")

	for i := 0; i < 5; i++ {
		w := signinFrom(router, "192.168.1.100")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	w := signinFrom(router, "192.168.1.100")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, w.Body.String())
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 2,
		StoreType:         RateLimitStoreMemory,
	})
	require.NoError(t, err)
	router := newLimitedRouter(t, limiter, "ok")

	// Different IPs have independent limits
	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"} {
		for i := 0; i < 2; i++ {
			w := signinFrom(router, ip)
			assert.Equal(t, http.StatusOK, w.Code, "Request %d from IP %s should succeed", i+1, ip)
		}
		w := signinFrom(router, ip)
		assert.Equal(t, http.StatusTooManyRequests, w.Code, "Third request from %s", ip)
	}
}

func TestNewRateLimiter_RedisWithoutClient(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 10,
		StoreType:         RateLimitStoreRedis,
	})
	require.ErrorIs(t, err, ErrRedisClientRequired)
	assert.Nil(t, limiter)
}

func TestNewRedisRateLimiter_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewRedisRateLimiter(1, client)
	require.Error(t, err)
	assert.Nil(t, limiter)
	assert.Contains(t, err.Error(), "failed to create Redis store")
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping Redis test: Docker not available (panic: %v)", r)
		}
	}()

	container, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Skipping Redis test: Docker not available (%v)", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

// Two instances sharing one Redis enforce a single budget per IP
func TestRedisRateLimiter_MultiInstance(t *testing.T) {
	client := setupRedis(t)

	limiter1, err := NewRedisRateLimiter(5, client)
	require.NoError(t, err)
	limiter2, err := NewRedisRateLimiter(5, client)
	require.NoError(t, err)

	router1 := newLimitedRouter(t, limiter1, "pod1")
	router2 := newLimitedRouter(t, limiter2, "pod2")

	const ip = "192.168.88.10"
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, signinFrom(router1, ip).Code, "Pod1 request %d", i+1)
	}
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, signinFrom(router2, ip).Code, "Pod2 request %d", i+1)
	}

	assert.Equal(t, http.StatusTooManyRequests, signinFrom(router1, ip).Code)
	assert.Equal(t, http.StatusTooManyRequests, signinFrom(router2, ip).Code)

	keys, err := client.Keys(context.Background(), rateLimitKeyPrefix+"*").Result()
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
}
