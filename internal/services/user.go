package services

import (
	"context"
	"log"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"
)

// UserService is the explicit administrative update path for users
type UserService struct {
	repo core.UserRepository
}

func NewUserService(repo core.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetUserByID always reads the store; users are never cached
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateRole changes the role of an active user
func (s *UserService) UpdateRole(
	ctx context.Context,
	actorID, userID, role string,
) (*models.User, error) {
	newRole, err := models.ParseRole(role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == newRole {
		return user, nil
	}

	oldRole := user.Role
	user.Role = newRole
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[User] %s changed role of %s from %s to %s", actorID, user.ID, oldRole, newRole)
	return user, nil
}

// Deactivate soft-deletes a user. Tokens already issued keep validating
// cryptographically but fail every freshness check.
func (s *UserService) Deactivate(ctx context.Context, actorID, userID string) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	log.Printf("[User] %s deactivated user %s", actorID, userID)
	return nil
}
