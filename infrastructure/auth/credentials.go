// Package auth implements the credential table and access tokens.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"

	"song-search-api/domain"

	"golang.org/x/crypto/bcrypt"
)

// userEntry is the shape of one value in the USERS JSON blob.
type userEntry struct {
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ParseUsers decodes a JSON object of the form
// {"alice": {"password": "...", "role": "admin"}}.
func ParseUsers(raw string) ([]domain.User, error) {
	var entries map[string]userEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}

	users := make([]domain.User, 0, len(entries))
	for name, e := range entries {
		role, err := domain.ParseRole(e.Role)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", name, err)
		}
		users = append(users, domain.User{Username: name, Password: e.Password, Role: role})
	}
	return users, nil
}

// CredentialStore implements [domain.CredentialStore] over a fixed user table.
//
// Stored passwords that look like bcrypt hashes are checked with bcrypt;
// anything else is compared verbatim.
type CredentialStore struct {
	users map[string]domain.User
}

// NewCredentialStore builds a store from the given users. It is read-only afterwards.
func NewCredentialStore(users []domain.User) *CredentialStore {
	m := make(map[string]domain.User, len(users))
	for _, u := range users {
		m[u.Username] = u
	}
	return &CredentialStore{users: m}
}

// Check returns the role of the user if username and password match.
func (s *CredentialStore) Check(username, password string) (domain.Role, error) {
	u, ok := s.users[username]
	if !ok || !passwordMatches(u.Password, password) {
		return "", domain.ErrInvalidCredentials
	}
	return u.Role, nil
}

// Len returns the number of users.
func (s *CredentialStore) Len() int {
	return len(s.users)
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// HashPassword returns a bcrypt hash suitable for the password field of the user table.
func HashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}
