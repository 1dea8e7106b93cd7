package auth

import (
	"context"
	"testing"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	provider := NewLocalProvider(repo)

	user, err := provider.Register(ctx, "Ann", "ann@co.com", "correct-horse-battery", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "ann@co.com", user.Email)
	assert.Equal(t, models.AuthProviderLocal, user.AuthProvider)
	assert.Equal(t, models.RoleUser, user.Role)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "correct-horse-battery", *user.PasswordHash)
	assert.Nil(t, user.ExternalID)

	result, err := provider.Authenticate(ctx, "ANN@CO.COM", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, "ann@co.com", result.User.Email)
	assert.False(t, result.IsNew)

	_, err = provider.Authenticate(ctx, "ann@co.com", "wrong")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestLocalProvider_RegisterMixedCaseEmail(t *testing.T) {
	ctx := context.Background()
	provider := NewLocalProvider(newTestStore(t))

	_, err := provider.Register(ctx, "Bob", "A@B.com", "a-long-password", models.RoleAdmin)
	require.NoError(t, err)

	result, err := provider.Authenticate(ctx, "a@b.com", "a-long-password")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", result.User.Email)
	assert.True(t, result.User.IsAdmin())
}

func TestLocalProvider_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	provider := NewLocalProvider(repo)

	_, err := provider.Register(ctx, "First", "dup@co.com", "password-one-1", models.RoleUser)
	require.NoError(t, err)

	_, err = provider.Register(ctx, "Second", "DUP@co.com", "password-two-2", models.RoleUser)
	assert.ErrorIs(t, err, core.ErrConflict)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLocalProvider_UnknownAndExternalUsersLookAlike(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	provider := NewLocalProvider(repo)

	google := models.NewExternalUser("G", "g@co.com", models.AuthProviderGoogle, "sub-1", models.RoleUser)
	require.NoError(t, repo.Create(ctx, google))

	_, errMissing := provider.Authenticate(ctx, "nobody@co.com", "whatever")
	_, errExternal := provider.Authenticate(ctx, "g@co.com", "whatever")

	assert.ErrorIs(t, errMissing, core.ErrUnauthorized)
	assert.ErrorIs(t, errExternal, core.ErrUnauthorized)
	assert.Equal(t, errMissing.Error(), errExternal.Error())
}

func TestLocalProvider_DeletedUserCannotAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	provider := NewLocalProvider(repo)

	user, err := provider.Register(ctx, "Gone", "gone@co.com", "password-gone", models.RoleUser)
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, user.ID))

	_, err = provider.Authenticate(ctx, "gone@co.com", "password-gone")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestLocalProvider_MalformedStoredHash(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	provider := NewLocalProvider(repo)

	require.NoError(t, repo.Create(ctx, models.NewLocalUser("Broken", "broken@co.com", "garbage", models.RoleUser)))

	_, err := provider.Authenticate(ctx, "broken@co.com", "anything")
	assert.ErrorIs(t, err, core.ErrInternal)
}

func TestLocalProvider_RegisterWithHash(t *testing.T) {
	ctx := context.Background()
	provider := NewLocalProvider(newTestStore(t))

	_, err := provider.RegisterWithHash(ctx, "Admin", "admin@co.com", "plaintext", models.RoleAdmin)
	assert.ErrorIs(t, err, core.ErrValidation)

	hash, err := HashPassword("precomputed-secret")
	require.NoError(t, err)

	user, err := provider.RegisterWithHash(ctx, "Admin", "admin@co.com", hash, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	result, err := provider.Authenticate(ctx, "admin@co.com", "precomputed-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestLocalProvider_Name(t *testing.T) {
	assert.Equal(t, "local", NewLocalProvider(nil).Name())
}
