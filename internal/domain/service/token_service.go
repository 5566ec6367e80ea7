package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single outcome for any token that cannot be trusted:
// bad signature, malformed structure or elapsed expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims defines the claims carried by a session token.
type Claims struct {
	AccountID uuid.UUID `json:"-"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly minted bearer token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenService mints and verifies stateless bearer tokens.
type TokenService interface {
	// Issue creates a signed token whose subject is accountID.
	Issue(accountID uuid.UUID) (*IssuedToken, error)

	// Verify returns the subject of a valid token, or ErrInvalidToken.
	Verify(tokenString string) (uuid.UUID, error)
}
