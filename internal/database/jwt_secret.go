package database

import (
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/printcare/backend/internal/config"
	"github.com/printcare/backend/internal/models"
)

const jwtSecretKey = "jwt_secret"

// EnsureJWTSecret ensures the JWT secret is persisted in the database.
// If none exists, generates and saves one. Returns the secret.
func EnsureJWTSecret(cfg *config.Config) string {
	if DB == nil {
		log.Println("Warning: Database not connected, cannot persist JWT secret")
		return cfg.JWTSecret
	}

	var pref models.SystemPreference
	result := DB.Where("key = ?", jwtSecretKey).First(&pref)

	if result.Error == nil && pref.Value != "" {
		log.Println("JWT secret loaded from database - sessions will persist across restarts")
		return pref.Value
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = generateSecureSecret(32)
	}

	pref = models.SystemPreference{
		Key:       jwtSecretKey,
		Value:     secret,
		ValueType: "string",
	}

	if err := DB.Create(&pref).Error; err != nil {
		// Try update if create fails (race condition)
		DB.Model(&models.SystemPreference{}).Where("key = ?", jwtSecretKey).Update("value", secret)
	}

	log.Println("JWT secret generated and persisted to database")
	return secret
}

// generateSecureSecret generates a cryptographically secure random secret
func generateSecureSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte("fallback-secret-change-me"))
	}
	return hex.EncodeToString(bytes)
}

// GetCompanyName returns the configured organization name for branding
func GetCompanyName() string {
	if DB == nil {
		return ""
	}
	var pref models.SystemPreference
	if err := DB.Where("key = ?", "company_name").First(&pref).Error; err != nil {
		return ""
	}
	return pref.Value
}
