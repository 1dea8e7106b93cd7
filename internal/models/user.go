package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the two-level authorization role carried by every user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts the string form back into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(s)) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// AuthProvider identifies which credential scheme created a user
type AuthProvider string

const (
	AuthProviderLocal     AuthProvider = "local"
	AuthProviderGoogle    AuthProvider = "google"
	AuthProviderDirectory AuthProvider = "activedirectory"
	AuthProviderOIDC      AuthProvider = "oidc" // reserved
)

func (p AuthProvider) String() string {
	return string(p)
}

// User is the canonical identity record.
//
// Exactly one of PasswordHash and ExternalID is set: PasswordHash for local
// users, ExternalID for every other provider. Email is always stored lowercase.
// Uniqueness of email and of (auth_provider, external_id) among active users
// is enforced by partial unique indexes created in the store.
type User struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	Email        string       `gorm:"not null;index" json:"email"`
	PasswordHash *string      `json:"-"` // local users only
	Role         Role         `gorm:"not null;default:'user'" json:"role"`
	AuthProvider AuthProvider `gorm:"not null;default:'local'" json:"auth_provider"`
	ExternalID   *string      `gorm:"index" json:"external_id,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewLocalUser builds an active local user holding a password hash
func NewLocalUser(name, email, passwordHash string, role Role) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: &passwordHash,
		Role:         role,
		AuthProvider: AuthProviderLocal,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewExternalUser builds an active user owned by an external provider
func NewExternalUser(
	name, email string,
	provider AuthProvider,
	externalID string,
	role Role,
) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        NormalizeEmail(email),
		Role:         role,
		AuthProvider: provider,
		ExternalID:   &externalID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsExternal returns true if user authenticates via external provider
func (u *User) IsExternal() bool {
	return u.AuthProvider != AuthProviderLocal
}

// HasPassword reports whether a local password hash is stored
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserResponse is the outward representation of a user; it never carries
// credential material.
type UserResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	AuthProvider AuthProvider `json:"auth_provider"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ToResponse converts the record into its outward form
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		AuthProvider: u.AuthProvider,
		CreatedAt:    u.CreatedAt,
	}
}
