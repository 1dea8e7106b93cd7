package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsAuthMiddleware protects the metrics endpoint with a static Bearer
// token. An empty token leaves the endpoint open.
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided, ok := bearerToken(c)
		if !ok {
			abortMetricsAuth(c, "Bearer token required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			abortMetricsAuth(c, "Invalid token")
			return
		}

		c.Next()
	}
}

func abortMetricsAuth(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="Metrics"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
}
