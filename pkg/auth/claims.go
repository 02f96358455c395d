package auth

import (
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Role     enums.UserRole
	// JTI doubles as the session key; a fresh one is generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Username string         `json:"username"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Payload rebuilds the mint input from parsed claims, e.g. for token refresh.
func (c *AccessTokenClaims) Payload(jti string) AccessTokenPayload {
	return AccessTokenPayload{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
		JTI:      jti,
	}
}
