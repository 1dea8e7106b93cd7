package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/metrics"
	"github.com/go-authgate/idgate/internal/middleware"
	"github.com/go-authgate/idgate/internal/services"
	"github.com/go-authgate/idgate/internal/store"
	"github.com/go-authgate/idgate/internal/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef" //nolint:gosec // test value, not a credential

// fakeDirectory accepts jdoe / directory-pass only
type fakeDirectory struct{}

func (fakeDirectory) dial(context.Context, *config.LDAPConfig) (auth.DirectoryConn, error) {
	return fakeDirectory{}, nil
}

func (fakeDirectory) Bind(username, password string) error {
	if username != "jdoe@example.com" || password != "directory-pass" {
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, nil)
	}
	return nil
}

func (fakeDirectory) Search(*ldap.SearchRequest) (*ldap.SearchResult, error) {
	entry := ldap.NewEntry("CN=John Doe,OU=Users,DC=example,DC=com", map[string][]string{
		"displayName":    {"John Doe"},
		"mail":           {"jdoe@example.com"},
		"sAMAccountName": {"jdoe"},
	})
	return &ldap.SearchResult{Entries: []*ldap.Entry{entry}}, nil
}

func (fakeDirectory) Close() {}

// fakeGoogle serves /token and /userinfo; only "good-code" is exchanged
func fakeGoogle(t *testing.T, repo *store.Store) *auth.GoogleProvider {
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
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":            "google-sub-1",
			"email":          "jane@example.com",
			"email_verified": true,
			"name":           "Jane Roe",
		})
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

type testEnv struct {
	store  *store.Store
	local  *auth.LocalProvider
	auth   *services.AuthService
	router *gin.Engine
}

// newTestEnv wires every handler onto a router with all providers enabled
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens := token.NewLocalTokenProvider(&config.Config{
		JWTSecret:     testJWTSecret,
		JWTIssuer:     "idgate-test",
		JWTExpiration: time.Hour,
	})
	local := auth.NewLocalProvider(db)
	directory := auth.NewLDAPProvider(&config.LDAPConfig{
		URL:               "ldap://dc-01.example.com:389",
		UserBaseDN:        "OU=Users,DC=example,DC=com",
		Domain:            "example.com",
		UseUPN:            true,
		UsernameAttribute: "sAMAccountName",
		Timeout:           time.Second,
	}, db, fakeDirectory{}.dial)

	authService := services.NewAuthService(
		db,
		tokens,
		local,
		fakeGoogle(t, db),
		directory,
		metrics.NewNoopMetrics(),
	)
	ah := NewAuthHandler(authService)
	uh := NewUserHandler(services.NewUserService(db))

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/health", NewHealthHandler(db).Check)
	r.POST("/auth/signin", ah.SignIn)
	r.POST("/auth/ldap/signin", ah.LDAPSignIn)
	r.POST("/auth/verify", ah.Verify)
	r.GET("/auth/google/login", ah.GoogleLogin)
	r.GET("/auth/google/callback", ah.GoogleCallback)
	r.GET("/auth/me", middleware.RequireAuth(authService), ah.Me)
	admin := r.Group("/auth/admin", middleware.RequireAuth(authService), middleware.RequireAdmin())
	admin.POST("/register", ah.Register)
	admin.PATCH("/users/:id/role", uh.UpdateRole)
	admin.DELETE("/users/:id", uh.Deactivate)

	return &testEnv{store: db, local: local, auth: authService, router: r}
}

func (e *testEnv) do(
	t *testing.T,
	method, path, bearer string,
	body any,
	cookies ...*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
