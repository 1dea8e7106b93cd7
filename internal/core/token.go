package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-authgate/idgate/internal/models"
)

// TokenResult is the outcome of a token issuance call.
type TokenResult struct {
	TokenString string
	TokenType   string
	ExpiresAt   time.Time
	ExpiresIn   int64 // seconds
}

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	Subject   string
	Email     string
	Role      string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UserRole maps the role claim back to a Role. An unknown value means the
// token was corrupted or forged with a valid key, which is an internal fault.
func (c *TokenClaims) UserRole() (models.Role, error) {
	role, err := models.ParseRole(c.Role)
	if err != nil {
		return "", Internal(fmt.Sprintf("invalid role claim %q", c.Role), err)
	}
	return role, nil
}

// TokenProvider issues and validates signed identity tokens.
type TokenProvider interface {
	Issue(ctx context.Context, subject, email string, role models.Role) (*TokenResult, error)
	Validate(ctx context.Context, tokenString string) (*TokenClaims, error)
	Name() string
}
