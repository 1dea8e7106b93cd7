package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/services"
)

// initializeServices creates all business services
func initializeServices(
	repo core.UserRepository,
	tokens core.TokenProvider,
	local *auth.LocalProvider,
	google *auth.GoogleProvider,
	ldap *auth.LDAPProvider,
	recorder core.Recorder,
) (*services.AuthService, *services.UserService) {
	authService := services.NewAuthService(repo, tokens, local, google, ldap, recorder)
	userService := services.NewUserService(repo)
	return authService, userService
}

// initializeAdmin creates the first administrator on an empty store
func initializeAdmin(
	ctx context.Context,
	cfg *config.Config,
	repo core.UserRepository,
	local *auth.LocalProvider,
) error {
	admin, err := services.EnsureInitialAdmin(
		ctx,
		repo,
		local,
		cfg.InitialAdmin,
		cfg.InitialAdminConfig,
	)
	if err != nil {
		return fmt.Errorf("failed to create initial admin: %w", err)
	}
	if admin != nil {
		log.Printf("Initial admin created: %s", admin.Email)
	}
	return nil
}
