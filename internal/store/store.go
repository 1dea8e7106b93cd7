package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ensure Store implements the repository and metrics contracts at compile time
var (
	_ core.UserRepository = (*Store)(nil)
	_ core.MetricsStore   = (*Store)(nil)
)

// Partial unique indexes: uniqueness only binds active users, so a
// soft-deleted account never blocks re-registration of its email.
// Both sqlite and postgres accept this syntax.
var uniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_active_email
		ON users (LOWER(email)) WHERE is_active`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_active_external
		ON users (auth_provider, external_id)
		WHERE is_active AND external_id IS NOT NULL`,
}

// Store is the gorm-backed Credential Store
type Store struct {
	db *gorm.DB
}

// New opens the database, migrates the schema and creates the uniqueness indexes
func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, stmt := range uniqueIndexes {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("failed to create unique index: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// newGormLogger keeps gorm at warn level without reporting lookup misses,
// which are routine here and would print the queried email
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Health pings the underlying connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// active scopes a query to users that have not been soft-deleted
func active(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

func (s *Store) findOne(ctx context.Context, op string, query *gorm.DB) (*models.User, error) {
	var user models.User
	if err := query.WithContext(ctx).Scopes(active).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.NotFound("user not found")
		}
		log.Printf("[Store] %s failed: %v", op, err)
		return nil, core.Internal("failed to query user", err)
	}
	return &user, nil
}

// FindByID returns the active user with the given id
func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "find_by_id", s.db.Where("id = ?", id))
}

// FindByEmail matches case-insensitively against active users
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(
		ctx,
		"find_by_email",
		s.db.Where("LOWER(email) = ?", models.NormalizeEmail(email)),
	)
}

// FindByExternalID finds an active user by provider and provider-side identity
func (s *Store) FindByExternalID(
	ctx context.Context,
	provider models.AuthProvider,
	externalID string,
) (*models.User, error) {
	return s.findOne(
		ctx,
		"find_by_external_id",
		s.db.Where("auth_provider = ? AND external_id = ?", provider, externalID),
	)
}

// checkCredentialInvariant enforces that local users carry a password hash
// and every other provider carries an external id, never both
func checkCredentialInvariant(u *models.User) error {
	hasHash := u.PasswordHash != nil
	hasExternal := u.ExternalID != nil
	switch {
	case u.AuthProvider == models.AuthProviderLocal && (!hasHash || hasExternal):
		return errors.New("local user must have a password hash and no external id")
	case u.AuthProvider != models.AuthProviderLocal && (hasHash || !hasExternal):
		return errors.New("external user must have an external id and no password hash")
	}
	return nil
}

// Create inserts a new user. The unique indexes are the real guard against
// concurrent registrations; a collision surfaces as a Conflict.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	if err := checkCredentialInvariant(user); err != nil {
		return core.Internal("invalid user record", err)
	}

	user.Email = models.NormalizeEmail(user.Email)
	user.IsActive = true
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return core.Conflict("email or external identity already registered")
		}
		log.Printf("[Store] create failed: %v", err)
		return core.Internal("failed to create user", err)
	}
	return nil
}

// Update persists every mutable column of an active user
func (s *Store) Update(ctx context.Context, user *models.User) error {
	if err := checkCredentialInvariant(user); err != nil {
		return core.Internal("invalid user record", err)
	}

	user.Email = models.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now()

	result := s.db.WithContext(ctx).
		Model(user).
		Scopes(active).
		Select("name", "email", "password_hash", "role", "auth_provider", "external_id", "updated_at").
		Updates(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return core.Conflict("email or external identity already registered")
		}
		log.Printf("[Store] update failed: %v", result.Error)
		return core.Internal("failed to update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.NotFound("user not found")
	}
	return nil
}

// SoftDelete deactivates a user; the row is kept
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Scopes(active).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		log.Printf("[Store] soft delete failed: %v", result.Error)
		return core.Internal("failed to delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.NotFound("user not found")
	}
	return nil
}

// Count returns the number of active users
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(active).Count(&count).Error; err != nil {
		log.Printf("[Store] count failed: %v", err)
		return 0, core.Internal("failed to count users", err)
	}
	return count, nil
}

// CountByProvider returns the number of active users owned by provider
func (s *Store) CountByProvider(ctx context.Context, provider models.AuthProvider) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Scopes(active).
		Where("auth_provider = ?", provider).
		Count(&count).Error
	if err != nil {
		log.Printf("[Store] count by provider failed: %v", err)
		return 0, core.Internal("failed to count users", err)
	}
	return count, nil
}

// IsEmpty reports whether there are no active users
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
