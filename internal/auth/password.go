// Package auth provides password hashing, access-token issuing, and the
// bearer-token middleware for the IssueDesk API.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword transforms a plaintext password into a one-way bcrypt hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
