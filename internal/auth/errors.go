package auth

import "github.com/go-authgate/idgate/internal/core"

// Provider errors. Every credential failure uses the same message so callers
// cannot tell a missing account from a wrong secret.
var (
	ErrInvalidCredentials = core.Unauthorized("invalid credentials")
	ErrEmailNotVerified   = core.OAuth("email address is not verified by the identity provider")
	ErrAccountConflict    = core.Conflict("an account with this email already exists")

	ErrIncompleteIdentity       = core.OAuth("identity provider returned no subject or email")
	ErrIncompleteDirectoryEntry = core.LDAP("directory entry has no account name or email")
)
