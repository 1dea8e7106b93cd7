package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRandomBytes(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		bytes, err := CryptoRandomBytes(20)
		require.NoError(t, err)
		assert.Len(t, bytes, 20)
	})

	t.Run("Generate unique values", func(t *testing.T) {
		bytes1, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		bytes2, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		assert.NotEqual(t, bytes1, bytes2, "Random bytes should not be identical")
	})
}

func TestCryptoRandomString(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		str, err := CryptoRandomString(20)
		require.NoError(t, err)
		assert.Len(t, str, 20)
	})

	t.Run("Odd length", func(t *testing.T) {
		str, err := CryptoRandomString(7)
		require.NoError(t, err)
		assert.Len(t, str, 7)
	})

	t.Run("Generate hex characters only", func(t *testing.T) {
		str, err := CryptoRandomString(20)
		require.NoError(t, err)

		for _, c := range str {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'),
				"Character '%c' is not a valid hex digit", c)
		}
	})
}

func TestCryptoRandomToken(t *testing.T) {
	tok, err := CryptoRandomToken(32)
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	other, err := CryptoRandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}
