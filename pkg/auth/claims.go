package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uint64
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims is the identity provider's bearer token, resolved to {userId, role}.
type AccessTokenClaims struct {
	UserID uint64     `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
