package auth

import (
	"errors"
	"fmt"
	"time"

	"song-search-api/domain"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an access token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// tokenClaims is the JWT body: the identity plus the registered exp/iat/sub claims.
type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTTokenService implements [domain.TokenService] with HS256-signed JWTs.
type JWTTokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTTokenService creates a token service. A ttl of zero means [DefaultTokenTTL].
func NewJWTTokenService(secret string, ttl time.Duration) (*JWTTokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret key is not set")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTTokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source. Used by tests.
func (s *JWTTokenService) WithClock(now func() time.Time) *JWTTokenService {
	s.now = now
	return s
}

// Issue signs a token for username and role, valid for the configured ttl.
func (s *JWTTokenService) Issue(username string, role domain.Role) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (s *JWTTokenService) Verify(token string) (domain.Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.Claims{}, domain.ErrExpiredToken
	case err != nil:
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.Username == "" {
		return domain.Claims{}, domain.ErrInvalidToken
	}
	return domain.Claims{Username: claims.Username, Role: role}, nil
}
