package auth

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"
)

// Ensure LocalProvider implements core.AuthProvider at compile time
var _ core.AuthProvider = (*LocalProvider)(nil)

// LocalProvider registers and authenticates password users held in the store
type LocalProvider struct {
	repo core.UserRepository

	dummyOnce sync.Once
	dummyHash string
}

// NewLocalProvider creates a new local authentication provider
func NewLocalProvider(repo core.UserRepository) *LocalProvider {
	return &LocalProvider{repo: repo}
}

// Name returns provider name for logging
func (p *LocalProvider) Name() string {
	return string(models.AuthProviderLocal)
}

// Register hashes password and stores a new local user. An existing active
// account with the same email yields a Conflict.
func (p *LocalProvider) Register(
	ctx context.Context,
	name, email, password string,
	role models.Role,
) (*models.User, error) {
	if _, err := p.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrAccountConflict
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, core.Internal("failed to hash password", err)
	}

	return p.RegisterWithHash(ctx, name, email, hash, role)
}

// RegisterWithHash stores a local user whose password was hashed elsewhere,
// for example by the hash-password command
func (p *LocalProvider) RegisterWithHash(
	ctx context.Context,
	name, email, passwordHash string,
	role models.Role,
) (*models.User, error) {
	if !IsPasswordHash(passwordHash) {
		return nil, core.Validation("password hash is not a valid argon2id string")
	}

	user := models.NewLocalUser(name, email, passwordHash, role)
	if err := p.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[Local] Registered user %s (%s)", user.ID, user.Email)
	return user, nil
}

// Authenticate verifies email and password against the store. A missing
// account, an account without a password and a wrong password all return
// ErrInvalidCredentials.
func (p *LocalProvider) Authenticate(
	ctx context.Context,
	email, password string,
) (*core.AuthResult, error) {
	user, err := p.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	if user == nil || !user.HasPassword() {
		// Burn the same argon2 cost so response time does not reveal
		// whether the account exists
		_, _ = VerifyPassword(password, p.dummy())
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		log.Printf("[Local] Stored hash for user %s is unreadable: %v", user.ID, err)
		return nil, core.Internal("stored password hash is invalid", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return &core.AuthResult{User: user}, nil
}

func (p *LocalProvider) dummy() string {
	p.dummyOnce.Do(func() {
		hash, err := HashPassword("idgate-timing-equalizer")
		if err != nil {
			log.Printf("[Local] Failed to prepare timing hash: %v", err)
			return
		}
		p.dummyHash = hash
	})
	return p.dummyHash
}
