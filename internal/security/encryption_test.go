package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher("unit-test-key")
	require.NoError(t, err)

	cipherText, err := c.Encrypt("smtp-password-123")
	require.NoError(t, err)
	assert.NotEqual(t, "smtp-password-123", cipherText)

	plain, err := c.Decrypt(cipherText)
	require.NoError(t, err)
	assert.Equal(t, "smtp-password-123", plain)
}

func TestDecryptPassesThroughLegacyPlaintext(t *testing.T) {
	c, err := NewCipher("unit-test-key")
	require.NoError(t, err)

	// Rows written before encryption was enabled hold raw values.
	plain, err := c.Decrypt("not-base64-!!")
	require.NoError(t, err)
	assert.Equal(t, "not-base64-!!", plain)
}

func TestEmptyValues(t *testing.T) {
	c, err := NewCipher("unit-test-key")
	require.NoError(t, err)

	out, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewCipherRequiresSecret(t *testing.T) {
	_, err := NewCipher("")
	assert.ErrorIs(t, err, ErrNoKey)
}
