package services

import (
	"context"
	"strings"
	"testing"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/mocks"
	"github.com/go-authgate/idgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_RegisterAndSignIn(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	svc := newTestAuthService(db, nil, nil, nil)

	user, err := svc.Register(ctx, "Ann", "ann@co.com", "correct-horse-battery", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	result, err := svc.SignIn(ctx, models.AuthProviderLocal, "ANN@CO.COM", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, "ann@co.com", result.User.Email)
	assert.Equal(t, "Bearer", result.Token.TokenType)
	assert.Equal(t, int64(3600), result.Token.ExpiresIn)
	assert.False(t, result.IsNew)

	verified, err := svc.Verify(ctx, result.Token.TokenString)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	_, err = svc.SignIn(ctx, models.AuthProviderLocal, "ann@co.com", "wrong")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(setupTestStore(t), nil, nil, nil)

	tests := []struct {
		name     string
		userName string
		password string
		role     string
		want     error
	}{
		{"empty name", "   ", "long-enough-password", "", ErrInvalidName},
		{"name too long", strings.Repeat("a", 101), "long-enough-password", "", ErrInvalidName},
		{"short password", "Bob", "short", "", ErrPasswordTooShort},
		{"unknown role", "Bob", "long-enough-password", "root", ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, "bob@example.com", tt.password, tt.role)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestAuthService_RegisterAdminRole(t *testing.T) {
	svc := newTestAuthService(setupTestStore(t), nil, nil, nil)

	user, err := svc.Register(context.Background(), "Root", "root@example.com", "long-enough-password", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	svc := newTestAuthService(db, nil, nil, nil)

	_, err := svc.Register(ctx, "Ann", "ann@co.com", "correct-horse-battery", "user")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Ann Two", "Ann@Co.com", "another-long-password", "user")
	assert.ErrorIs(t, err, core.ErrConflict)

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_ProviderDispatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(setupTestStore(t), nil, nil, nil)

	_, err := svc.SignIn(ctx, models.AuthProviderDirectory, "jdoe", "directory-pass")
	assert.ErrorIs(t, err, core.ErrNotConfigured)

	_, err = svc.SignIn(ctx, models.AuthProviderOIDC, "x", "y")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, _, err = svc.GoogleAuthorizationURL()
	assert.ErrorIs(t, err, core.ErrNotConfigured)

	_, err = svc.GoogleCallback(ctx, "good-code")
	assert.ErrorIs(t, err, core.ErrNotConfigured)

	assert.False(t, svc.GoogleEnabled())
	assert.False(t, svc.LDAPEnabled())
}

func TestAuthService_LDAPSignIn(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	dir := &testDirectory{groups: []string{"CN=Domain Admins,OU=Groups,DC=example,DC=com"}}
	svc := newTestAuthService(db, nil, newTestLDAPProvider(db, dir), nil)
	require.True(t, svc.LDAPEnabled())

	first, err := svc.SignIn(ctx, models.AuthProviderDirectory, "jdoe", "directory-pass")
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.Equal(t, models.RoleAdmin, first.User.Role)
	assert.Equal(t, models.AuthProviderDirectory, first.User.AuthProvider)

	second, err := svc.SignIn(ctx, models.AuthProviderDirectory, "jdoe", "directory-pass")
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = svc.SignIn(ctx, models.AuthProviderDirectory, "jdoe", "wrong")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, 3, dir.closed, "every dialed connection is released")
}

func TestAuthService_GoogleFlow(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	google := newTestGoogleProvider(t, db, map[string]any{
		"sub":            "g-123",
		"email":          "jane@gmail.com",
		"email_verified": true,
	})
	svc := newTestAuthService(db, google, nil, nil)

	url, state, err := svc.GoogleAuthorizationURL()
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.NotEmpty(t, state)

	result, err := svc.GoogleCallback(ctx, "good-code")
	require.NoError(t, err)
	assert.True(t, result.IsNew)
	assert.Equal(t, "jane", result.User.Name)

	again, err := svc.GoogleCallback(ctx, "good-code")
	require.NoError(t, err)
	assert.False(t, again.IsNew)
	assert.Equal(t, result.User.ID, again.User.ID)

	_, err = svc.GoogleCallback(ctx, "bad-code")
	assert.ErrorIs(t, err, core.ErrOAuth)
}

func TestAuthService_GoogleConflictWithLocalUser(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	google := newTestGoogleProvider(t, db, map[string]any{
		"sub":            "g-456",
		"email":          "x@y.com",
		"email_verified": true,
		"name":           "X",
	})
	svc := newTestAuthService(db, google, nil, nil)

	_, err := svc.Register(ctx, "X Local", "x@y.com", "correct-horse-battery", "")
	require.NoError(t, err)

	_, err = svc.GoogleCallback(ctx, "good-code")
	assert.ErrorIs(t, err, core.ErrConflict)

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_VerifyDeletedUser(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	svc := newTestAuthService(db, nil, nil, nil)

	user, err := svc.Register(ctx, "Ann", "ann@co.com", "correct-horse-battery", "")
	require.NoError(t, err)
	result, err := svc.SignIn(ctx, models.AuthProviderLocal, "ann@co.com", "correct-horse-battery")
	require.NoError(t, err)

	require.NoError(t, db.SoftDelete(ctx, user.ID))

	_, err = svc.Verify(ctx, result.Token.TokenString)
	assert.ErrorIs(t, err, ErrUserInactive)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestAuthService_VerifyReturnsCurrentRole(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	svc := newTestAuthService(db, nil, nil, nil)

	user, err := svc.Register(ctx, "Ann", "ann@co.com", "correct-horse-battery", "admin")
	require.NoError(t, err)
	result, err := svc.SignIn(ctx, models.AuthProviderLocal, "ann@co.com", "correct-horse-battery")
	require.NoError(t, err)

	_, err = NewUserService(db).UpdateRole(ctx, "system", user.ID, "user")
	require.NoError(t, err)

	verified, err := svc.Verify(ctx, result.Token.TokenString)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, verified.Role, "demotion applies before the token expires")
}

func TestAuthService_VerifyInvalidToken(t *testing.T) {
	svc := newTestAuthService(setupTestStore(t), nil, nil, nil)

	_, err := svc.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestAuthService_VerifyStoreFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	repo.EXPECT().
		FindByID(gomock.Any(), "user-1").
		Return(nil, core.Internal("failed to query user", context.DeadlineExceeded))

	svc := newTestAuthService(repo, nil, nil, nil)
	tok, err := testTokenProvider().Issue(ctx, "user-1", "a@b.com", models.RoleUser)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, tok.TokenString)
	assert.ErrorIs(t, err, core.ErrInternal)
	assert.NotErrorIs(t, err, core.ErrForbidden)
}

func TestAuthService_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	rec := mocks.NewMockRecorder(ctrl)
	db := setupTestStore(t)
	svc := newTestAuthService(db, nil, nil, rec)

	rec.EXPECT().RecordUserCreated("local")
	_, err := svc.Register(ctx, "Ann", "ann@co.com", "correct-horse-battery", "")
	require.NoError(t, err)

	gomock.InOrder(
		rec.EXPECT().RecordAuthAttempt("local", true, gomock.Any()),
		rec.EXPECT().RecordTokenIssued("local"),
	)
	result, err := svc.SignIn(ctx, models.AuthProviderLocal, "ann@co.com", "correct-horse-battery")
	require.NoError(t, err)

	rec.EXPECT().RecordAuthAttempt("local", false, gomock.Any())
	_, err = svc.SignIn(ctx, models.AuthProviderLocal, "ann@co.com", "nope")
	require.Error(t, err)

	rec.EXPECT().RecordTokenValidation("valid")
	_, err = svc.Verify(ctx, result.Token.TokenString)
	require.NoError(t, err)

	rec.EXPECT().RecordTokenValidation("invalid")
	_, err = svc.Verify(ctx, "garbage")
	require.Error(t, err)
}

func TestAuthService_SignInUsesProviderByRoute(t *testing.T) {
	ctx := context.Background()
	db := setupTestStore(t)
	dir := &testDirectory{}
	svc := newTestAuthService(db, nil, newTestLDAPProvider(db, dir), nil)

	_, err := auth.NewLocalProvider(db).Register(ctx, "J", "jdoe@example.com", "local-password-123", models.RoleUser)
	require.NoError(t, err)

	// Directory credentials on the local route are simply wrong credentials
	_, err = svc.SignIn(ctx, models.AuthProviderLocal, "jdoe@example.com", "directory-pass")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	// The directory identity collides with the local account's email
	_, err = svc.SignIn(ctx, models.AuthProviderDirectory, "jdoe", "directory-pass")
	assert.ErrorIs(t, err, core.ErrConflict)

}
