package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-authgate/idgate/internal/config"
)

const defaultSessionSecret = "session-secret-change-in-production"

// validateConfiguration validates all configuration settings and warns about
// development defaults left in place
func validateConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.GoogleOAuth != nil && cfg.SessionSecret == defaultSessionSecret {
		log.Printf("WARNING: SESSION_SECRET uses the default value; OAuth state cookies can be forged")
	}
	if cfg.IsProduction && cfg.MetricsEnabled && cfg.MetricsToken == "" {
		log.Printf("WARNING: /metrics is exposed without METRICS_TOKEN in production")
	}
	if cfg.LDAP != nil && cfg.LDAP.InsecureSkipVerify {
		log.Printf("WARNING: LDAP TLS verification is disabled (LDAP_INSECURE_SKIP_VERIFY=true)")
	}
	return nil
}
