package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUserContext(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		expected bool
	}{
		{
			name:     "Valid user",
			user:     &User{ID: "user-123", Name: "Test"},
			expected: true,
		},
		{
			name:     "Nil user",
			user:     nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := SetUserContext(context.Background(), tt.user)
			require.NotNil(t, ctx)

			retrieved := GetUserFromContext(ctx)
			if tt.expected {
				require.NotNil(t, retrieved)
				assert.Equal(t, tt.user.ID, retrieved.ID)
			} else {
				assert.Nil(t, retrieved)
			}
		})
	}
}

func TestGetUserFromGinContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Gin key", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set("user", &User{ID: "gin-user"})

		user := GetUserFromContext(c)
		require.NotNil(t, user)
		assert.Equal(t, "gin-user", user.ID)
	})

	t.Run("Falls back to request context", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request = req.WithContext(SetUserContext(req.Context(), &User{ID: "req-user"}))

		user := GetUserFromContext(c)
		require.NotNil(t, user)
		assert.Equal(t, "req-user", user.ID)
	})

	t.Run("Absent", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Nil(t, GetUserFromContext(c))
	})
}
