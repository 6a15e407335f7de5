// Package authutil provides password hashing and strength checks for
// password-based accounts. Google accounts carry no password hash and never
// pass through this package.
package authutil

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordRules describes the accepted password format for display on
// registration and password-change forms.
func PasswordRules() string {
	return "Password must be at least 8 characters and include a letter and a digit."
}

// ValidatePassword checks password strength and returns a user-facing
// message if it fails, "" if it passes.
func ValidatePassword(password string) string {
	if strings.TrimSpace(password) == "" {
		return "Password is required."
	}
	if len(password) < MinPasswordLength {
		return PasswordRules()
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return PasswordRules()
	}
	return ""
}
