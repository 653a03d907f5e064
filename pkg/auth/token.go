package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/membercards/pkg/config"
)

// Admin tokens are HS256 only.
var signingMethod = jwt.SigningMethodHS256

// signingKey checks the parts of cfg both minting and parsing depend on.
func signingKey(cfg config.JWTConfig) ([]byte, error) {
	switch {
	case cfg.Secret == "":
		return nil, errors.New("jwt secret is required")
	case cfg.Issuer == "":
		return nil, errors.New("jwt issuer is required")
	}
	return []byte(cfg.Secret), nil
}

// MintAccessToken signs an admin token for username valid for cfg.TTL from now.
func MintAccessToken(cfg config.JWTConfig, now time.Time, username string) (string, time.Time, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return "", time.Time{}, err
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return "", time.Time{}, errors.New("jwt expiration minutes must be positive")
	}
	subject := strings.TrimSpace(username)
	if subject == "" {
		return "", time.Time{}, errors.New("username is required")
	}

	expires := now.Add(ttl)
	signed, err := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return signed, expires, nil
}

// ParseAccessToken accepts only unexpired HS256 admin tokens from cfg.Issuer
// that name a subject.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)

	var claims AccessTokenClaims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("token role %q cannot manage members", claims.Role)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &claims, nil
}
