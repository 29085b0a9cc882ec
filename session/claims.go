package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsFromToken decodes the payload of a JWT without checking its
// signature. The client never holds the signing key, so the claims are only
// good for display and for noticing an expired token early.
func ClaimsFromToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "token is not a jwt")
	}
	return claims, nil
}

// Expired reports whether the token carried an expiry that is not after now.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}
