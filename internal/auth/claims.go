package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of access-token claims the client displays. The
// signature is not checked; the server is the only party that trusts the
// token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt *time.Time
}

// Expired reports whether the token carries an exp at or before now.
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// ParseClaims decodes a JWT without verifying it. Opaque tokens return
// ok=false.
func ParseClaims(token string) (Claims, bool) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, false
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		c.ExpiresAt = &t
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["name"].(string); ok {
		c.Name = v
	}
	return c, true
}
