package metrics

import (
	"sync"

	"github.com/go-authgate/idgate/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics contract consumed by services and bootstrap
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Authentication Metrics
	AuthAttemptsTotal      *prometheus.CounterVec
	AuthDuration           *prometheus.HistogramVec
	AuthOAuthCallbackTotal *prometheus.CounterVec

	// User Metrics
	UsersCreatedTotal *prometheus.CounterVec
	UsersActive       *prometheus.GaugeVec

	// Token Metrics
	TokensIssuedTotal    *prometheus.CounterVec
	TokenValidationTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// If enabled=false, returns NoopMetrics (zero overhead).
// Uses sync.Once so Prometheus collectors are only registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		AuthAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"provider", "result"}, // provider: local, google, activedirectory; result: success, failure
		),
		AuthDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_duration_seconds",
				Help:    "Time taken to authenticate a user, including external calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		AuthOAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_callback_total",
				Help: "Total number of OAuth callback attempts",
			},
			[]string{"provider", "result"}, // result: success, error
		),

		UsersCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "users_created_total",
				Help: "Total number of user accounts created",
			},
			[]string{"provider"},
		),
		UsersActive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "users_active",
				Help: "Current number of active (not soft-deleted) users",
			},
			[]string{"provider"},
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_issued_total",
				Help: "Total number of access tokens issued",
			},
			[]string{"provider"},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_validation_total",
				Help: "Total number of token validations",
			},
			[]string{"result"}, // valid, invalid, user_inactive
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_users_local, count_users_google, ...
		),
	}
}
