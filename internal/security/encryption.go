package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
)

var (
	ErrNoKey         = errors.New("encryption key not initialized")
	ErrDecryptFailed = errors.New("decryption failed")
)

// Cipher encrypts and decrypts channel credentials stored in the database.
// It is constructed once at startup and handed to whatever needs it, so
// tests can swap in a cipher with a known key.
type Cipher struct {
	key []byte
}

// NewCipher derives a 32-byte AES key from the configured secret using SHA-256.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrNoKey
	}
	hash := sha256.Sum256([]byte(secret))
	return &Cipher{key: hash[:]}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts ciphertext using AES-256-GCM. Values that do not look
// like ciphertext are returned as-is so rows written before encryption was
// enabled keep working.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		// Not encrypted data, return as-is (for migration)
		return ciphertext, nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return ciphertext, nil
	}

	nonce, ciphertextBytes := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return ciphertext, nil
	}

	return string(plaintext), nil
}

// HashString creates a one-way hash (for comparison without decryption)
func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// GenerateRandomKey generates a random encryption key
func GenerateRandomKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
