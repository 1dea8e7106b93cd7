package bootstrap

import (
	"github.com/go-authgate/idgate/internal/handlers"
	"github.com/go-authgate/idgate/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth   *handlers.AuthHandler
	user   *handlers.UserHandler
	health *handlers.HealthHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	authService *services.AuthService,
	userService *services.UserService,
	db handlers.HealthChecker,
) handlerSet {
	return handlerSet{
		auth:   handlers.NewAuthHandler(authService),
		user:   handlers.NewUserHandler(userService),
		health: handlers.NewHealthHandler(db),
	}
}
