package bootstrap

import (
	"log"
	"net/http"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
)

// initializeProviders creates the local provider and, when configured, the
// Google and LDAP providers. Unconfigured optional providers are nil.
func initializeProviders(
	cfg *config.Config,
	repo core.UserRepository,
	oauthClient *http.Client,
) (*auth.LocalProvider, *auth.GoogleProvider, *auth.LDAPProvider) {
	local := auth.NewLocalProvider(repo)

	var google *auth.GoogleProvider
	if cfg.GoogleOAuth != nil {
		google = auth.NewGoogleProvider(cfg.GoogleOAuth, repo, oauthClient, nil)
		log.Printf("Google OAuth configured: redirect=%s", cfg.GoogleOAuth.RedirectURL)
	} else {
		log.Printf("Google OAuth not configured")
	}

	var ldap *auth.LDAPProvider
	if cfg.LDAP != nil {
		ldap = auth.NewLDAPProvider(cfg.LDAP, repo, nil)
		log.Printf("LDAP configured: url=%s domain=%s", cfg.LDAP.URL, cfg.LDAP.Domain)
	} else {
		log.Printf("LDAP not configured")
	}

	return local, google, ldap
}
