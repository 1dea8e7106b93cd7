package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-authgate/idgate/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.local.Register(ctx, "Root", "root@example.com", "root-password-123", models.RoleAdmin)
	require.NoError(t, err)
	ann, err := env.local.Register(ctx, "Ann", "ann@example.com", "correct horse 1", models.RoleUser)
	require.NoError(t, err)

	signin := env.do(t, http.MethodPost, "/auth/signin", "", gin.H{
		"email": "root@example.com", "password": "root-password-123",
	})
	require.Equal(t, http.StatusOK, signin.Code)
	adminToken := decode[signInBody](t, signin.Body.Bytes()).Token

	w := env.do(t, http.MethodPatch, "/auth/admin/users/"+ann.ID+"/role", adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, "/auth/admin/users/"+ann.ID+"/role", adminToken,
		gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = env.do(t, http.MethodPatch, "/auth/admin/users/missing/role", adminToken,
		gin.H{"role": "admin"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/auth/admin/users/"+ann.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err = env.store.FindByID(ctx, ann.ID)
	require.Error(t, err)
}

type failingChecker struct{}

func (failingChecker) Health(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"connected"}`, w.Body.String())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", NewHealthHandler(failingChecker{}).Check)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
