package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	OwnerID  uuid.UUID
	Username string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to pharmacy owners.
type AccessTokenClaims struct {
	OwnerID  uuid.UUID `json:"owner_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}
