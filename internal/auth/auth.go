// Package auth verifies role passwords and manages bearer tokens for
// authenticated sessions.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role identifies the access level granted by a password.
type Role string

const (
	// RoleUser grants access to the generation endpoints.
	RoleUser Role = "user"
	// RoleAdmin grants access to settings and meditation management.
	RoleAdmin Role = "admin"
)

// ErrInvalidRole is returned for roles other than user or admin.
var ErrInvalidRole = errors.New("invalid role")

// ErrInvalidCredentials is returned when the password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ParseRole validates a role string. Roles are case-sensitive.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

// VerifyPassword compares the provided password against the stored
// credential. Stored values with a bcrypt prefix are verified as hashes;
// anything else is compared in constant time as plaintext, so existing
// deployments keep working until their settings are rehashed.
func VerifyPassword(stored, provided string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(provided)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}

// HashPassword produces a bcrypt hash suitable for storing in settings.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
