package services

import (
	"context"
	"testing"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/mocks"
	"github.com/go-authgate/idgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func makeTestUser(t *testing.T, repo core.UserRepository, email string) *models.User {
	t.Helper()
	u, err := auth.NewLocalProvider(repo).Register(
		context.Background(), "Test User", email, "correct-horse-battery", models.RoleUser,
	)
	require.NoError(t, err)
	return u
}

func TestUserService_GetUserByID(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	svc := NewUserService(db)
	u := makeTestUser(t, db, "get@example.com")

	got, err := svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUserService_UpdateRole(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	svc := NewUserService(db)
	u := makeTestUser(t, db, "promote@example.com")

	updated, err := svc.UpdateRole(ctx, "admin-1", u.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.True(t, updated.UpdatedAt.After(u.UpdatedAt) || updated.UpdatedAt.Equal(u.UpdatedAt))

	stored, err := db.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
	require.NotNil(t, stored.PasswordHash, "role change keeps credentials intact")

	_, err = svc.UpdateRole(ctx, "admin-1", u.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.UpdateRole(ctx, "admin-1", "missing", "user")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUserService_UpdateRoleUnchangedSkipsWrite(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	user := models.NewLocalUser("A", "a@example.com", "hash", models.RoleAdmin)

	repo.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
	// No Update expectation: an unchanged role must not touch the store

	got, err := NewUserService(repo).UpdateRole(ctx, "admin-1", user.ID, "admin")
	require.NoError(t, err)
	assert.Same(t, user, got)
}

func TestUserService_UpdateRoleStoreFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	user := models.NewLocalUser("A", "a@example.com", "hash", models.RoleUser)

	repo.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
	repo.EXPECT().Update(gomock.Any(), user).Return(core.Internal("failed to update user", context.Canceled))

	_, err := NewUserService(repo).UpdateRole(ctx, "admin-1", user.ID, "admin")
	assert.ErrorIs(t, err, core.ErrInternal)
}

func TestUserService_Deactivate(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	svc := NewUserService(db)
	u := makeTestUser(t, db, "bye@example.com")

	require.NoError(t, svc.Deactivate(ctx, "admin-1", u.ID))

	_, err := svc.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.Deactivate(ctx, "admin-1", u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "a deactivated user cannot be deactivated again")

	// The email is free again
	again := makeTestUser(t, db, "bye@example.com")
	assert.NotEqual(t, u.ID, again.ID)
}
