package core

import (
	"context"

	"github.com/go-authgate/idgate/internal/models"
)

// AuthResult holds the outcome of a successful authentication.
type AuthResult struct {
	User  *models.User
	IsNew bool // true when this authentication created the account
}

// AuthProvider is the interface that identifier/secret authentication
// backends must implement. The OAuth redirect flow does not fit this shape
// and is driven through its own two operations.
type AuthProvider interface {
	Authenticate(ctx context.Context, identifier, secret string) (*AuthResult, error)
	Name() string
}
