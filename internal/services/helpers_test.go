package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/metrics"
	"github.com/go-authgate/idgate/internal/store"
	"github.com/go-authgate/idgate/internal/token"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef" //nolint:gosec // test value, not a credential

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testTokenProvider() *token.LocalTokenProvider {
	return token.NewLocalTokenProvider(&config.Config{
		JWTSecret:     testJWTSecret,
		JWTIssuer:     "idgate-test",
		JWTExpiration: time.Hour,
	})
}

// testDirectory is a single-user directory: jdoe / directory-pass
type testDirectory struct {
	groups []string
	closed int
}

func (d *testDirectory) dial(context.Context, *config.LDAPConfig) (auth.DirectoryConn, error) {
	return d, nil
}

func (d *testDirectory) Bind(username, password string) error {
	if username != "jdoe@example.com" || password != "directory-pass" {
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, nil)
	}
	return nil
}

func (d *testDirectory) Search(*ldap.SearchRequest) (*ldap.SearchResult, error) {
	entry := ldap.NewEntry("CN=John Doe,OU=Users,DC=example,DC=com", map[string][]string{
		"displayName":    {"John Doe"},
		"mail":           {"jdoe@example.com"},
		"sAMAccountName": {"jdoe"},
		"memberOf":       d.groups,
	})
	return &ldap.SearchResult{Entries: []*ldap.Entry{entry}}, nil
}

func (d *testDirectory) Close() {
	d.closed++
}

func newTestLDAPProvider(repo core.UserRepository, dir *testDirectory) *auth.LDAPProvider {
	return auth.NewLDAPProvider(&config.LDAPConfig{
		URL:               "ldap://dc-01.example.com:389",
		UserBaseDN:        "OU=Users,DC=example,DC=com",
		Domain:            "example.com",
		UseUPN:            true,
		UsernameAttribute: "sAMAccountName",
		Timeout:           time.Second,
		AdminGroup:        "Domain Admins",
	}, repo, dir.dial)
}

// newTestGoogleProvider serves /token and /userinfo for a fixed identity
func newTestGoogleProvider(
	t *testing.T,
	repo core.UserRepository,
	userInfo map[string]any,
) *auth.GoogleProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return auth.NewGoogleProvider(&config.GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
	}, repo, srv.Client(), &auth.GoogleEndpoints{
		AuthURL:     srv.URL + "/auth",
		TokenURL:    srv.URL + "/token",
		UserInfoURL: srv.URL + "/userinfo",
	})
}

func newTestAuthService(
	repo core.UserRepository,
	google *auth.GoogleProvider,
	ldapProvider *auth.LDAPProvider,
	m core.Recorder,
) *AuthService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return NewAuthService(repo, testTokenProvider(), auth.NewLocalProvider(repo), google, ldapProvider, m)
}
