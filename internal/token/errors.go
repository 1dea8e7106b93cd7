package token

import "github.com/go-authgate/idgate/internal/core"

var (
	// ErrInvalidToken covers bad signatures, wrong issuers, malformed input
	// and expiry alike, so callers learn nothing about why a token failed
	ErrInvalidToken = core.Unauthorized("invalid or expired token")

	// ErrMalformedToken is returned by DecodeUnverified for input that is
	// not a JWT at all
	ErrMalformedToken = core.Validation("malformed token")
)
