package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"
	"github.com/go-authgate/idgate/internal/util"

	"golang.org/x/oauth2"
)

// Google endpoints
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleScopes are requested on every authorization redirect
var GoogleScopes = []string{"openid", "email", "profile"}

// GoogleUserInfo is the identity returned by the userinfo endpoint
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleEndpoints overrides the issuer URLs, mainly for tests
type GoogleEndpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleProvider drives the authorization-code flow against Google and
// reconciles the returned identity with the store
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	repo        core.UserRepository
}

// NewGoogleProvider creates a Google OAuth provider. httpClient bounds the
// token and userinfo calls; nil uses http.DefaultClient. A nil endpoints
// value targets Google's production URLs.
func NewGoogleProvider(
	cfg *config.GoogleOAuthConfig,
	repo core.UserRepository,
	httpClient *http.Client,
	endpoints *GoogleEndpoints,
) *GoogleProvider {
	ep := GoogleEndpoints{
		AuthURL:     GoogleAuthURL,
		TokenURL:    GoogleTokenURL,
		UserInfoURL: GoogleUserInfoURL,
	}
	if endpoints != nil {
		ep = *endpoints
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       GoogleScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   ep.AuthURL,
				TokenURL:  ep.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: ep.UserInfoURL,
		httpClient:  httpClient,
		repo:        repo,
	}
}

// Name returns provider name for logging
func (p *GoogleProvider) Name() string {
	return string(models.AuthProviderGoogle)
}

// AuthorizationURL returns the redirect URL together with a fresh
// anti-forgery state. Matching the state on callback is the caller's job.
func (p *GoogleProvider) AuthorizationURL() (string, string, error) {
	state, err := util.CryptoRandomToken(32)
	if err != nil {
		return "", "", core.Internal("failed to generate oauth state", err)
	}
	return p.config.AuthCodeURL(state), state, nil
}

// ExchangeCode trades an authorization code for the caller's identity.
// Every upstream failure is logged and reported as an OAuth error; an
// unverified email is rejected.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*GoogleUserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		log.Printf("[Google] Token exchange failed: %v", err)
		return nil, core.OAuth("failed to exchange authorization code")
	}

	info, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		log.Printf("[Google] Userinfo request failed: %v", err)
		return nil, core.OAuth("failed to fetch user info")
	}

	if !info.EmailVerified {
		log.Printf("[Google] Rejected unverified email for subject %s", info.Sub)
		return nil, ErrEmailNotVerified
	}
	if info.Sub == "" || info.Email == "" {
		log.Printf("[Google] Userinfo response missing sub or email")
		return nil, core.OAuth("identity provider returned an incomplete profile")
	}

	return info, nil
}

func (p *GoogleProvider) fetchUserInfo(
	ctx context.Context,
	token *oauth2.Token,
) (*GoogleUserInfo, error) {
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google API error: %s - %s", resp.Status, string(body))
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// AuthenticateOrCreate maps a verified Google identity onto a canonical
// user, creating one on first login. An active account that already owns the
// email yields a Conflict; accounts are never linked implicitly.
func (p *GoogleProvider) AuthenticateOrCreate(
	ctx context.Context,
	info *GoogleUserInfo,
) (*core.AuthResult, error) {
	if !info.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	name := info.Name
	if name == "" {
		name = emailLocalPart(info.Email)
	}

	result, err := reconcile(ctx, p.repo, externalIdentity{
		provider:   models.AuthProviderGoogle,
		externalID: info.Sub,
		email:      info.Email,
		name:       name,
		role:       models.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	if result.IsNew {
		log.Printf("[Google] Created user %s for subject %s", result.User.ID, info.Sub)
	}
	return result, nil
}

// externalIdentity is a provider-verified identity awaiting reconciliation
type externalIdentity struct {
	provider   models.AuthProvider
	externalID string
	email      string
	name       string
	role       models.Role

	// adoptSameProviderEmail reuses an account of the same provider that
	// owns the email instead of rejecting it
	adoptSameProviderEmail bool
}

// reconcile finds the user owning (provider, externalID) or creates one.
// The store's unique indexes settle concurrent first logins: the loser's
// Create fails with Conflict.
func reconcile(
	ctx context.Context,
	repo core.UserRepository,
	id externalIdentity,
) (*core.AuthResult, error) {
	if strings.TrimSpace(id.externalID) == "" || strings.TrimSpace(id.email) == "" {
		log.Printf("[%s] Rejected identity without external id or email", id.provider)
		if id.provider == models.AuthProviderDirectory {
			return nil, ErrIncompleteDirectoryEntry
		}
		return nil, ErrIncompleteIdentity
	}

	user, err := repo.FindByExternalID(ctx, id.provider, id.externalID)
	if err == nil {
		return &core.AuthResult{User: user}, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	existing, err := repo.FindByEmail(ctx, id.email)
	if err == nil {
		if id.adoptSameProviderEmail && existing.AuthProvider == id.provider {
			return &core.AuthResult{User: existing}, nil
		}
		log.Printf(
			"[%s] Email %s already registered via %s",
			id.provider,
			existing.Email,
			existing.AuthProvider,
		)
		return nil, ErrAccountConflict
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	user = models.NewExternalUser(id.name, id.email, id.provider, id.externalID, id.role)
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &core.AuthResult{User: user, IsNew: true}, nil
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "User"
	}
	return local
}
