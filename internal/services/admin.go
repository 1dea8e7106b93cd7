package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/go-authgate/idgate/internal/auth"
	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"
)

var ErrInitialAdminNoPassword = errors.New("initial admin needs a password or password_hash")

// EnsureInitialAdmin creates an administrator when the store holds no active
// users. The environment wins over the JSON file at path; with neither the
// step is skipped. It returns the created user, or nil when nothing was done.
func EnsureInitialAdmin(
	ctx context.Context,
	repo core.UserRepository,
	local *auth.LocalProvider,
	fromEnv *config.InitialAdminConfig,
	path string,
) (*models.User, error) {
	empty, err := repo.IsEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if !empty {
		log.Println("[Bootstrap] Users already exist, skipping initial admin")
		return nil, nil //nolint:nilnil // nothing to create
	}

	admin := fromEnv
	if admin != nil {
		log.Println("[Bootstrap] Initial admin from environment")
	} else {
		admin, err = config.LoadInitialAdminFile(path)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			log.Printf("[Bootstrap] No initial admin configured (%s not found)", path)
			return nil, nil //nolint:nilnil // nothing to create
		}
		log.Printf("[Bootstrap] Initial admin from %s", path)
	}

	var user *models.User
	switch {
	case admin.PasswordHash != "":
		user, err = local.RegisterWithHash(
			ctx,
			strings.TrimSpace(admin.Name),
			admin.Email,
			admin.PasswordHash,
			models.RoleAdmin,
		)
	case admin.Password != "":
		if utf8.RuneCountInString(admin.Password) < MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		log.Println("[Bootstrap] WARNING: initial admin password is stored in plain text; prefer password_hash")
		user, err = local.Register(
			ctx,
			strings.TrimSpace(admin.Name),
			admin.Email,
			admin.Password,
			models.RoleAdmin,
		)
	default:
		return nil, ErrInitialAdminNoPassword
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[Bootstrap] Created initial admin %s", user.Email)
	return user, nil
}
