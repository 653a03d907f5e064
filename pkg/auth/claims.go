package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role minted today; it guards member mutations.
const RoleAdmin = "admin"

// AccessTokenClaims represents the typed JWT issued to the admin console.
type AccessTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Username returns the authenticated admin name carried in the subject.
func (c *AccessTokenClaims) Username() string {
	return c.Subject
}
