package auth

import "time"

// LoginRequest captures the admin credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=512"`
}

// LoginResponse carries the bearer token for the admin console.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
