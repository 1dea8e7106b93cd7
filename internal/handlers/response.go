package handlers

import (
	"log"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"
	"github.com/go-authgate/idgate/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError writes {"error": <message>} with the status of the error's
// kind. Internal causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	kind := core.KindOf(err)
	if kind == core.KindInternal {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": core.PublicMessage(err)})
}

func respondBindError(c *gin.Context, message string) {
	respondError(c, core.Validation(message))
}

// tokenResponse is the body returned by every sign-in flow
type tokenResponse struct {
	Token     string              `json:"token"`
	TokenType string              `json:"token_type"`
	ExpiresIn int64               `json:"expires_in"`
	User      models.UserResponse `json:"user"`
	IsNewUser *bool               `json:"is_new_user,omitempty"`
}

func newTokenResponse(result *services.SignInResult) tokenResponse {
	return tokenResponse{
		Token:     result.Token.TokenString,
		TokenType: result.Token.TokenType,
		ExpiresIn: result.Token.ExpiresIn,
		User:      result.User.ToResponse(),
	}
}
