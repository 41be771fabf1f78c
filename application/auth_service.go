package application

import (
	"errors"

	"song-search-api/domain"
)

// AuthService checks logins and access tokens.
type AuthService struct {
	credentials domain.CredentialStore
	tokens      domain.TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(credentials domain.CredentialStore, tokens domain.TokenService) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
	}
}

// Login returns a signed token carrying the user's role. Bad credentials
// yield domain.ErrInvalidCredentials and never a token.
func (a *AuthService) Login(username, password string) (string, error) {
	role, err := a.credentials.Check(username, password)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return a.tokens.Issue(username, role)
}

// Authenticate verifies token and checks that its role is one of allowed.
func (a *AuthService) Authenticate(token string, allowed ...domain.Role) (domain.Claims, error) {
	if token == "" {
		return domain.Claims{}, domain.ErrMissingToken
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, domain.ErrExpiredToken) {
			return domain.Claims{}, domain.ErrExpiredToken
		}
		return domain.Claims{}, domain.ErrInvalidToken
	}

	if !domain.Authorize(claims, allowed) {
		return claims, domain.ErrForbidden
	}
	return claims, nil
}
