package core

import (
	"context"
	"time"

	"github.com/go-authgate/idgate/internal/models"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Authentication
	RecordAuthAttempt(provider string, success bool, duration time.Duration)
	RecordOAuthCallback(provider string, success bool)
	RecordUserCreated(provider string)

	// Token Operations
	RecordTokenIssued(provider string)
	RecordTokenValidation(result string)

	// Gauge Setters (for periodic updates)
	SetActiveUsersCount(provider string, count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by the gauge cache wrapper.
type MetricsStore interface {
	CountByProvider(ctx context.Context, provider models.AuthProvider) (int64, error)
}
