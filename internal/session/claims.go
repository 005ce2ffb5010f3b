package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the displayable part of a JWT session token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Claims decodes the token without verifying its signature. It is used for
// display only; opaque (non-JWT) tokens return false and the session stays
// authenticated regardless.
func (s *Store) Claims() (Claims, bool) {
	return parseClaims(s.session.Token)
}

func parseClaims(token string) (Claims, bool) {
	if token == "" {
		return Claims{}, false
	}

	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return Claims{}, false
	}

	claims := Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, true
}
