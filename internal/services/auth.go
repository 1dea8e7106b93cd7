package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"
)

// Token validation results recorded in metrics
const (
	validationValid        = "valid"
	validationInvalid      = "invalid"
	validationUserInactive = "user_inactive"
)

// SignInResult is a canonical user together with the token issued for it
type SignInResult struct {
	Token *core.TokenResult
	User  *models.User
	IsNew bool // first login through an external provider
}

// AuthService dispatches credentials to the configured providers and turns
// successful authentications into tokens. Google and LDAP are optional;
// calling a flow whose provider is nil yields a NotConfigured error.
type AuthService struct {
	repo    core.UserRepository
	tokens  core.TokenProvider
	local   *auth.LocalProvider
	google  *auth.GoogleProvider
	ldap    *auth.LDAPProvider
	metrics core.Recorder
}

func NewAuthService(
	repo core.UserRepository,
	tokens core.TokenProvider,
	local *auth.LocalProvider,
	google *auth.GoogleProvider,
	ldap *auth.LDAPProvider,
	m core.Recorder,
) *AuthService {
	return &AuthService{
		repo:    repo,
		tokens:  tokens,
		local:   local,
		google:  google,
		ldap:    ldap,
		metrics: m,
	}
}

// GoogleEnabled reports whether the Google flow is configured
func (s *AuthService) GoogleEnabled() bool {
	return s.google != nil
}

// LDAPEnabled reports whether directory sign-in is configured
func (s *AuthService) LDAPEnabled() bool {
	return s.ldap != nil
}

// providerFor selects the identifier/secret provider for a route. The
// provider is chosen by the caller, never by looking at the credential.
func (s *AuthService) providerFor(provider models.AuthProvider) (core.AuthProvider, error) {
	switch provider {
	case models.AuthProviderLocal:
		return s.local, nil
	case models.AuthProviderDirectory:
		if s.ldap == nil {
			return nil, core.NotConfigured("LDAP authentication")
		}
		return s.ldap, nil
	default:
		return nil, ErrUnknownProvider
	}
}

// SignIn authenticates identifier and secret with the chosen provider and
// issues a token for the resulting user
func (s *AuthService) SignIn(
	ctx context.Context,
	provider models.AuthProvider,
	identifier, secret string,
) (*SignInResult, error) {
	p, err := s.providerFor(provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := p.Authenticate(ctx, identifier, secret)
	s.metrics.RecordAuthAttempt(p.Name(), err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	if result.IsNew {
		s.metrics.RecordUserCreated(p.Name())
	}

	return s.issue(ctx, p.Name(), result)
}

// GoogleAuthorizationURL starts the Google flow. The returned state must be
// kept by the caller and compared on callback.
func (s *AuthService) GoogleAuthorizationURL() (string, string, error) {
	if s.google == nil {
		return "", "", core.NotConfigured("Google OAuth")
	}
	return s.google.AuthorizationURL()
}

// GoogleCallback exchanges an authorization code and signs the user in,
// creating the account on first login. State matching happens before this
// call.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*SignInResult, error) {
	if s.google == nil {
		return nil, core.NotConfigured("Google OAuth")
	}

	start := time.Now()
	result, err := s.googleAuthenticate(ctx, code)
	s.metrics.RecordOAuthCallback(s.google.Name(), err == nil)
	s.metrics.RecordAuthAttempt(s.google.Name(), err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	if result.IsNew {
		s.metrics.RecordUserCreated(s.google.Name())
	}

	return s.issue(ctx, s.google.Name(), result)
}

func (s *AuthService) googleAuthenticate(ctx context.Context, code string) (*core.AuthResult, error) {
	info, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.google.AuthenticateOrCreate(ctx, info)
}

func (s *AuthService) issue(
	ctx context.Context,
	provider string,
	result *core.AuthResult,
) (*SignInResult, error) {
	user := result.User
	tok, err := s.tokens.Issue(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued(provider)

	return &SignInResult{
		Token: tok,
		User:  user,
		IsNew: result.IsNew,
	}, nil
}

// Register creates a local account. Only administrators reach this path;
// the caller enforces that.
func (s *AuthService) Register(
	ctx context.Context,
	name, email, password, role string,
) (*models.User, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > 100 {
		return nil, ErrInvalidName
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	r := models.RoleUser
	if role != "" {
		parsed, err := models.ParseRole(role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		r = parsed
	}

	user, err := s.local.Register(ctx, name, email, password, r)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordUserCreated(s.local.Name())
	return user, nil
}

// Verify validates a token and re-reads the canonical user, so a deleted
// account stops verifying even though its token has not expired. The
// returned user carries the current role, which may differ from the claim.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.tokens.Validate(ctx, tokenString)
	if err != nil {
		s.metrics.RecordTokenValidation(validationInvalid)
		return nil, err
	}
	if _, err := claims.UserRole(); err != nil {
		s.metrics.RecordTokenValidation(validationInvalid)
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Printf("[Auth] Token for inactive or unknown user %s", claims.Subject)
			s.metrics.RecordTokenValidation(validationUserInactive)
			return nil, ErrUserInactive
		}
		return nil, err
	}

	s.metrics.RecordTokenValidation(validationValid)
	return user, nil
}
