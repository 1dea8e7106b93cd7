package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Metrics cache type constants
const (
	MetricsCacheTypeMemory = "memory"
	MetricsCacheTypeRedis  = "redis"
)

// MinJWTSecretLength is the minimum signing secret size (256 bits)
const MinJWTSecretLength = 32

var (
	ErrJWTSecretTooShort  = errors.New("JWT_SECRET must be at least 32 characters (256 bits)")
	ErrInvalidTokenTTL    = errors.New("JWT_EXPIRATION must be positive")
	ErrInvalidLDAPTimeout = errors.New("LDAP_TIMEOUT must be positive")
	ErrInvalidRateLimit   = errors.New("invalid rate limit configuration")
	ErrInvalidMetrics     = errors.New("invalid metrics configuration")
)

// GoogleOAuthConfig holds the federated OAuth client settings
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// LDAPConfig holds the directory bind settings
type LDAPConfig struct {
	URL                string // ldap://dc-01.example.com:389 or ldaps://dc-01.example.com:636
	UserBaseDN         string
	Domain             string
	UseUPN             bool // bind as user@domain instead of CN=user,<base>
	UseStartTLS        bool
	InsecureSkipVerify bool
	UsernameAttribute  string
	Timeout            time.Duration
	AdminGroup         string // empty disables admin mapping
}

// InitialAdminConfig describes the administrator created on an empty store
type InitialAdminConfig struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string

	// Session settings (OAuth state)
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)
	DBInitTimeout  time.Duration

	// Google OAuth; nil when not configured
	GoogleOAuth  *GoogleOAuthConfig
	OAuthTimeout time.Duration

	// LDAP / Active Directory; nil when not configured
	LDAP *LDAPConfig

	// Initial admin bootstrap
	InitialAdmin       *InitialAdminConfig // from environment, nil if incomplete
	InitialAdminConfig string              // path of the JSON fallback file

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string        // Bearer token for /metrics; empty leaves it open
	MetricsGaugeUpdateEnabled  bool          // periodic users_active refresh
	MetricsGaugeUpdateInterval time.Duration // also the gauge cache TTL
	MetricsCacheType           string        // "memory" or "redis"
	CacheInitTimeout           time.Duration

	// Rate limiting
	EnableRateLimit  bool
	RateLimitStore   string // "memory" or "redis"
	LoginRateLimit   int    // requests per minute per IP
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "idgate.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnvBool("IS_PRODUCTION", false),

		JWTSecret:     loadJWTSecret(),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", time.Hour),
		JWTIssuer:     getEnv("JWT_ISSUER", "auth-service"),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 600),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		GoogleOAuth:  loadGoogleOAuth(),
		OAuthTimeout: getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),

		LDAP: loadLDAP(),

		InitialAdmin:       loadInitialAdmin(),
		InitialAdminConfig: getEnv("INITIAL_ADMIN_CONFIG", "initial_admin.json"),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", MetricsCacheTypeMemory),
		CacheInitTimeout:           getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),

		EnableRateLimit:  getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:   getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		LoginRateLimit:   getEnvInt("LOGIN_RATE_LIMIT", 10),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
	}
}

// Validate checks settings that would make the service unsafe or unusable
func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return ErrJWTSecretTooShort
	}
	if c.JWTExpiration <= 0 {
		return ErrInvalidTokenTTL
	}
	if c.LDAP != nil && c.LDAP.Timeout <= 0 {
		return ErrInvalidLDAPTimeout
	}
	if c.EnableRateLimit {
		if c.LoginRateLimit <= 0 {
			return fmt.Errorf("%w: LOGIN_RATE_LIMIT must be positive", ErrInvalidRateLimit)
		}
		if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
			return fmt.Errorf(
				"%w: unsupported RATE_LIMIT_STORE %q",
				ErrInvalidRateLimit,
				c.RateLimitStore,
			)
		}
	}
	if c.MetricsEnabled && c.MetricsGaugeUpdateEnabled {
		if c.MetricsGaugeUpdateInterval <= 0 {
			return fmt.Errorf(
				"%w: METRICS_GAUGE_UPDATE_INTERVAL must be positive",
				ErrInvalidMetrics,
			)
		}
		if c.MetricsCacheType != MetricsCacheTypeMemory &&
			c.MetricsCacheType != MetricsCacheTypeRedis {
			return fmt.Errorf(
				"%w: unsupported METRICS_CACHE_TYPE %q",
				ErrInvalidMetrics,
				c.MetricsCacheType,
			)
		}
	}
	return nil
}

// loadJWTSecret falls back to a random secret, which invalidates every
// token on restart
func loadJWTSecret() string {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return secret
	}
	log.Printf("WARNING: JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}
	return hex.EncodeToString(buf)
}

func loadGoogleOAuth() *GoogleOAuthConfig {
	clientID := getEnv("GOOGLE_CLIENT_ID", "")
	clientSecret := getEnv("GOOGLE_CLIENT_SECRET", "")
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleOAuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL: getEnv(
			"GOOGLE_REDIRECT_URL",
			"http://localhost:8080/auth/google/callback",
		),
	}
}

func loadLDAP() *LDAPConfig {
	url := getEnv("LDAP_URL", "")
	baseDN := getEnv("LDAP_USER_BASE_DN", "")
	domain := getEnv("LDAP_DOMAIN", "")
	if url == "" || baseDN == "" || domain == "" {
		return nil
	}
	return &LDAPConfig{
		URL:                url,
		UserBaseDN:         baseDN,
		Domain:             domain,
		UseUPN:             getEnvBool("LDAP_USE_UPN", true),
		UseStartTLS:        getEnvBool("LDAP_USE_STARTTLS", false),
		InsecureSkipVerify: getEnvBool("LDAP_INSECURE_SKIP_VERIFY", false),
		UsernameAttribute:  getEnv("LDAP_USERNAME_ATTRIBUTE", "sAMAccountName"),
		Timeout:            getEnvDuration("LDAP_TIMEOUT", 10*time.Second),
		AdminGroup:         getEnv("LDAP_ADMIN_GROUP", ""),
	}
}

func loadInitialAdmin() *InitialAdminConfig {
	name := getEnv("INITIAL_ADMIN_NAME", "")
	email := getEnv("INITIAL_ADMIN_EMAIL", "")
	password := getEnv("INITIAL_ADMIN_PASSWORD", "")
	hash := getEnv("INITIAL_ADMIN_PASSWORD_HASH", "")
	if name == "" || email == "" || (password == "" && hash == "") {
		return nil
	}
	return &InitialAdminConfig{
		Name:         name,
		Email:        email,
		Password:     password,
		PasswordHash: hash,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		value = strings.ToLower(value)
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		var secs int
		if _, err := fmt.Sscanf(value, "%d", &secs); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// LoadInitialAdminFile reads the JSON fallback for the initial administrator.
// A missing file returns (nil, nil).
func LoadInitialAdminFile(path string) (*InitialAdminConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil //nolint:nilnil // absence is not an error
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var admin InitialAdminConfig
	if err := json.Unmarshal(data, &admin); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &admin, nil
}
