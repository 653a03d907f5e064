package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/membercards/pkg/auth"
	"github.com/angelmondragon/membercards/pkg/config"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type service struct {
	username     string
	passwordHash string
	jwtCfg       config.JWTConfig
	now          func() time.Time
}

// ServiceParams bundles the admin identity and token settings.
type ServiceParams struct {
	Auth      config.AuthConfig
	JWTConfig config.JWTConfig
}

// NewService constructs the admin login service. The password hash is
// checked up front so a bad deployment fails at boot, not at first login.
func NewService(params ServiceParams) (Service, error) {
	username := strings.TrimSpace(params.Auth.AdminUsername)
	if username == "" {
		return nil, fmt.Errorf("admin username is required")
	}
	hash := strings.TrimSpace(params.Auth.AdminPassword)
	if err := security.ValidateHash(hash); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &service{
		username:     username,
		passwordHash: hash,
		jwtCfg:       params.JWTConfig,
		now:          time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	// always run the key derivation so unknown usernames cost the same
	ok, err := security.VerifyPassword(req.Password, s.passwordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !userMatch {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, expiresAt, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), s.username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}
