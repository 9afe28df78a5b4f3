// Package jwt signs and verifies admin session tokens.
package jwt

import (
	"time"

	"github.com/Laisky/errors/v2"
	jwtLib "github.com/golang-jwt/jwt/v5"
)

const issuer = "envo-blog"

// Signer issues and parses HS256 session tokens.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a signer. The secret must be at least 16 bytes.
func NewSigner(secret []byte, now func() time.Time) (*Signer, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Signer{secret: secret, now: now}, nil
}

// Sign issues a token for the session id, subject and email, valid for ttl.
func (s *Signer) Sign(sessionID, subject, email string, ttl time.Duration) (string, *SessionClaims, error) {
	now := s.now()
	claims := &SessionClaims{
		RegisteredClaims: jwtLib.RegisteredClaims{
			ID:        sessionID,
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwtLib.NewNumericDate(now),
			ExpiresAt: jwtLib.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}

	token, err := jwtLib.NewWithClaims(jwtLib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign session token")
	}

	return token, claims, nil
}

// Parse verifies the token signature, issuer and expiry and returns its claims.
func (s *Signer) Parse(token string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	_, err := jwtLib.ParseWithClaims(token, claims,
		func(*jwtLib.Token) (any, error) { return s.secret, nil },
		jwtLib.WithValidMethods([]string{jwtLib.SigningMethodHS256.Alg()}),
		jwtLib.WithIssuer(issuer),
		jwtLib.WithExpirationRequired(),
		jwtLib.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrap(err, "parse session token")
	}
	if claims.ID == "" {
		return nil, errors.New("session token without id")
	}

	return claims, nil
}
