// Package token issues and verifies signed, time-bound session tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultValidity is how long an issued token remains verifiable.
const DefaultValidity = 7 * 24 * time.Hour

// ErrInvalidToken covers every verification failure: malformed input, bad
// signature, and expiry. Callers get no more detail than "invalid".
var ErrInvalidToken = errors.New("invalid token")

// Claims binds a token to exactly one user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Service signs and verifies session tokens with a process-wide secret.
// The secret is read-only after construction; rotating it invalidates all
// outstanding tokens.
type Service struct {
	secret   []byte
	validity time.Duration
}

// NewService creates a token Service. A non-positive validity falls back to
// DefaultValidity.
func NewService(secret []byte, validity time.Duration) *Service {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Service{secret: secret, validity: validity}
}

// Issue returns a signed token bound to userID, carrying issuance and expiry
// timestamps.
func (s *Service) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		UserID: userID,
	})
	return token.SignedString(s.secret)
}

// Verify checks the signature and expiry of tokenValue and returns the bound
// user id. Any structural, integrity, or expiry failure yields ErrInvalidToken.
func (s *Service) Verify(tokenValue string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenValue, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
