package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		// NoopMetrics or an unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // route pattern, not the raw path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath returns the route pattern (e.g. "/auth/admin/users/:id")
// or "unknown" for unmatched requests, keeping label cardinality bounded
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordAuthAttempt records an authentication attempt and its latency
func (m *Metrics) RecordAuthAttempt(provider string, success bool, duration time.Duration) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.AuthAttemptsTotal.WithLabelValues(provider, result).Inc()
	m.AuthDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordOAuthCallback records an OAuth callback outcome
func (m *Metrics) RecordOAuthCallback(provider string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.AuthOAuthCallbackTotal.WithLabelValues(provider, result).Inc()
}

// RecordUserCreated records an account creation. users_active is owned by
// the periodic gauge update, since soft deletes never pass through here.
func (m *Metrics) RecordUserCreated(provider string) {
	m.UsersCreatedTotal.WithLabelValues(provider).Inc()
}

// RecordTokenIssued records token issuance
func (m *Metrics) RecordTokenIssued(provider string) {
	m.TokensIssuedTotal.WithLabelValues(provider).Inc()
}

// RecordTokenValidation records token validation
func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
}

// SetActiveUsersCount sets the active user gauge (for periodic updates)
func (m *Metrics) SetActiveUsersCount(provider string, count int) {
	m.UsersActive.WithLabelValues(provider).Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
