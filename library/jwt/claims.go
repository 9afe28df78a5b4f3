package jwt

import (
	jwtLib "github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of an admin session token.
// RegisteredClaims.ID carries the session id, Subject the auth provider uid.
type SessionClaims struct {
	jwtLib.RegisteredClaims
	Email string `json:"email"`
}
