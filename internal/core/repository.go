package core

import (
	"context"

	"github.com/go-authgate/idgate/internal/models"
)

// UserRepository is the Credential Store contract. Every operation is atomic
// with respect to the uniqueness invariants; lookups only ever see active
// users.
//
// Lookups return an error matching ErrNotFound when no active user matches.
// Create returns ErrConflict on an email or (provider, external id) collision.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByExternalID(
		ctx context.Context,
		provider models.AuthProvider,
		externalID string,
	) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id string) error
	IsEmpty(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int64, error)
}
