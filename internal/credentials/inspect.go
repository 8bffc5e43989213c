package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the part of a stored token worth logging. Tokens are opaque to the
// portal; when one happens to be a JWT its subject and expiry are read without
// verifying the signature, which is the backend's job.
type Claims struct {
	IsJWT     bool
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that lies before now.
func (c Claims) Expired(now time.Time) bool {
	return c.IsJWT && !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

func Inspect(token string) Claims {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}
	}

	out := Claims{IsJWT: true, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out
}
