package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	AuthID uuid.UUID
	// JTI doubles as the session key. Left blank, a random id is used.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID int64     `json:"user_id"`
	AuthID uuid.UUID `json:"auth_id"`
	jwt.RegisteredClaims
}
