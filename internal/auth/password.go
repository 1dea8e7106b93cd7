package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-authgate/idgate/internal/util"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters
const (
	argonMemory  uint32 = 64 * 1024 // KiB
	argonTime    uint32 = 3
	argonThreads uint8  = 4
	argonSaltLen        = 16
	argonKeyLen  uint32 = 32
)

// ErrMalformedHash means a stored hash could not be parsed
var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives an argon2id PHC string:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<digest>
func HashPassword(password string) (string, error) {
	salt, err := util.CryptoRandomBytes(argonSaltLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseHash(encoded string) (*argonParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	p := &argonParams{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, ErrMalformedHash
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return nil, ErrMalformedHash
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, ErrMalformedHash
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, ErrMalformedHash
	}
	return p, nil
}

// VerifyPassword reports whether password matches the encoded hash. The
// comparison is constant time; a hash that cannot be parsed returns
// ErrMalformedHash.
func VerifyPassword(password, encoded string) (bool, error) {
	p, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

// IsPasswordHash reports whether s looks like an argon2id PHC string
func IsPasswordHash(s string) bool {
	_, err := parseHash(s)
	return err == nil
}
