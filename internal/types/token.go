package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims represents the claims in a session token
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}
