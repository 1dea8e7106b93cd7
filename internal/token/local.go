package token

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Ensure LocalTokenProvider implements core.TokenProvider at compile time
var _ core.TokenProvider = (*LocalTokenProvider)(nil)

// jwtClaims is the wire form: exactly sub, email, role, exp, iat and iss
type jwtClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *jwtClaims) toClaims() *Claims {
	claims := &Claims{
		Subject: c.Subject,
		Email:   c.Email,
		Role:    c.Role,
		Issuer:  c.Issuer,
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time
	}
	return claims
}

// LocalTokenProvider signs and validates HS256 JWTs with a shared secret
type LocalTokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewLocalTokenProvider creates a new local token provider
func NewLocalTokenProvider(cfg *config.Config) *LocalTokenProvider {
	return &LocalTokenProvider{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    cfg.JWTExpiration,
		now:    time.Now,
	}
}

// Name returns provider name for logging
func (p *LocalTokenProvider) Name() string {
	return "local"
}

// TTL returns the lifetime of issued tokens
func (p *LocalTokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue signs a token for subject valid for the configured TTL
func (p *LocalTokenProvider) Issue(
	ctx context.Context,
	subject, email string,
	role models.Role,
) (*Result, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := jwtClaims{
		Email: email,
		Role:  role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, core.Internal("failed to sign token", err)
	}

	return &Result{
		TokenString: tokenString,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
		ExpiresIn:   int64(p.ttl.Seconds()),
	}, nil
}

// Validate verifies signature, issuer and expiry with no leeway
func (p *LocalTokenProvider) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (any, error) {
			return p.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(p.validationTime),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Printf("[Token] Rejected expired token")
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			log.Printf("[Token] Rejected token with issuer %q", claims.Issuer)
		default:
			log.Printf("[Token] Rejected token: %v", err)
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims.toClaims(), nil
}

// validationTime compares at the whole-second precision of exp, so a token
// stays valid through its expiry second. jwt rejects once now is not before
// exp, hence the nanosecond offset.
func (p *LocalTokenProvider) validationTime() time.Time {
	return p.now().Truncate(time.Second).Add(-time.Nanosecond)
}

// DecodeUnverified reads the claims without checking signature or expiry.
// It is for diagnostics only and must never back an authorization decision.
func (p *LocalTokenProvider) DecodeUnverified(tokenString string) (*Claims, error) {
	var claims jwtClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return nil, ErrMalformedToken
	}
	return claims.toClaims(), nil
}
