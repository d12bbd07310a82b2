package auth

import (
	"github.com/shokujin-wiki/shokujin-api/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the body of the sign up endpoint. Fields are validated
// by the service so each gets its own message.
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// RefreshRequest carries the pair presented to the refresh endpoint.
type RefreshRequest struct {
	AccessToken  string
	RefreshToken string
}

// TokenResponse is returned by sign up, login and refresh.
type TokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int            `json:"expiresIn"`
	User         *users.UserDTO `json:"user,omitempty"`
}
