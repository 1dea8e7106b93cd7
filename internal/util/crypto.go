package util

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// CryptoRandomString generates a random hex string of the given length
func CryptoRandomString(length int) (string, error) {
	bytes, err := CryptoRandomBytes(int64((length + 1) / 2))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

// CryptoRandomToken returns n random bytes encoded as unpadded URL-safe base64,
// suitable for anti-forgery state values carried in query strings
func CryptoRandomToken(n int) (string, error) {
	bytes, err := CryptoRandomBytes(int64(n))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
