package bootstrap

import (
	"log"
	"net/http"

	_ "github.com/go-authgate/idgate/api" // swagger docs
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/metrics"
	"github.com/go-authgate/idgate/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const sessionCookieName = "idgate_session"

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	verifier middleware.TokenVerifier,
	prometheusMetrics core.Recorder,
	rateLimitRedisClient *redis.Client,
) (*gin.Engine, error) {
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.IPMiddleware())

	// Session cookie holds only the OAuth state
	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/health", h.health.Check)

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Swagger documentation (development only)
	if !cfg.IsProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		log.Printf("Swagger UI enabled at: %s/swagger/index.html", cfg.BaseURL)
	}

	signinLimiter, err := setupRateLimiting(cfg, rateLimitRedisClient)
	if err != nil {
		return nil, err
	}

	setupAllRoutes(r, h, verifier, signinLimiter)

	logServerStartup(cfg)

	return r, nil
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/auth/google",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	h handlerSet,
	verifier middleware.TokenVerifier,
	signinLimiter gin.HandlerFunc,
) {
	requireAuth := middleware.RequireAuth(verifier)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signin", signinLimiter, h.auth.SignIn)
		authGroup.POST("/ldap/signin", signinLimiter, h.auth.LDAPSignIn)
		authGroup.POST("/verify", h.auth.Verify)
		authGroup.GET("/google/login", h.auth.GoogleLogin)
		authGroup.GET("/google/callback", signinLimiter, h.auth.GoogleCallback)
		authGroup.GET("/me", requireAuth, h.auth.Me)
	}

	// Admin routes (require admin role)
	admin := r.Group("/auth/admin")
	admin.Use(requireAuth, middleware.RequireAdmin())
	{
		admin.POST("/register", h.auth.Register)
		admin.PATCH("/users/:id/role", h.user.UpdateRole)
		admin.DELETE("/users/:id", h.user.Deactivate)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Identity service starting on %s", cfg.ServerAddr)
	log.Printf("Sign-in endpoints: %s/auth/signin, %s/auth/ldap/signin", cfg.BaseURL, cfg.BaseURL)
	if cfg.GoogleOAuth != nil {
		log.Printf("Google sign-in: %s/auth/google/login", cfg.BaseURL)
	}
}
