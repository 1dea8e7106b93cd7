package services

import "github.com/go-authgate/idgate/internal/core"

// MinPasswordLength is enforced on every plaintext password set through the service
const MinPasswordLength = 12

var (
	ErrUserInactive     = core.Forbidden("user account is no longer active")
	ErrPasswordTooShort = core.Validation("password must be at least 12 characters")
	ErrInvalidName      = core.Validation("name must be between 1 and 100 characters")
	ErrInvalidRole      = core.Validation("role must be 'user' or 'admin'")
	ErrUnknownProvider  = core.Validation("unknown authentication provider")
)
