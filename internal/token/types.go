package token

import "github.com/go-authgate/idgate/internal/core"

// Token type constants
const (
	TokenTypeBearer = "Bearer"
)

// Result is an alias for core.TokenResult.
type Result = core.TokenResult

// Claims is an alias for core.TokenClaims.
type Claims = core.TokenClaims
