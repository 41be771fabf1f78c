package domain

import (
	"fmt"
	"slices"
)

// Role is the permission level carried by a user and their tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is an entry of the credential table.
type User struct {
	Username string
	Password string
	Role     Role
}

// Claims is the identity decoded from a verified access token.
type Claims struct {
	Username string
	Role     Role
}

// Authorize reports whether the claims' role is one of allowed.
func Authorize(claims Claims, allowed []Role) bool {
	return slices.Contains(allowed, claims.Role)
}

// CredentialStore checks login attempts against the credential table.
type CredentialStore interface {
	// Check returns the user's role, or ErrInvalidCredentials.
	Check(username, password string) (Role, error)
}

// TokenService issues and verifies signed, time-limited access tokens.
type TokenService interface {
	Issue(username string, role Role) (string, error)
	// Verify returns ErrInvalidToken or ErrExpiredToken on failure.
	Verify(token string) (Claims, error)
}
