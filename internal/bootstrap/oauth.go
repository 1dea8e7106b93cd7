package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/go-authgate/idgate/internal/config"

	"github.com/appleboy/go-httpclient"
)

// createOAuthHTTPClient creates the HTTP client used for the Google token
// exchange and userinfo calls. Requests are bounded by OAUTH_TIMEOUT and are
// never retried.
func createOAuthHTTPClient(cfg *config.Config) (*http.Client, error) {
	client, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.OAuthTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth HTTP client: %w", err)
	}
	return client, nil
}
