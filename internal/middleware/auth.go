package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"

	"github.com/gin-gonic/gin"
)

// ContextKeyUser is the gin key holding the verified *models.User
const ContextKeyUser = "user"

const bearerPrefix = "Bearer "

// TokenVerifier checks a bearer token and returns the canonical user behind it
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < len(bearerPrefix) ||
		!strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// RequireAuth verifies the bearer token and stores the current user record
// both under the gin "user" key and on the request context
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="idgate"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed Authorization header",
			})
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			status := core.KindOf(err).HTTPStatus()
			if status == http.StatusUnauthorized {
				c.Header("WWW-Authenticate", `Bearer realm="idgate", error="invalid_token"`)
			}
			c.AbortWithStatusJSON(status, gin.H{
				"error": core.PublicMessage(err),
			})
			return
		}

		c.Set(ContextKeyUser, user)
		c.Request = c.Request.WithContext(models.SetUserContext(c.Request.Context(), user))
		c.Next()
	}
}

// RequireAdmin rejects users without the admin role.
// This middleware should be used after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := models.GetUserFromContext(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Administrator privileges required",
			})
			return
		}
		c.Next()
	}
}
