// Package auth is the authentication client: email/password sign-in against a
// provider, session tokens, revocation, and a process-scoped current session.
package auth

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
)

// Sign-in failure codes.
const (
	CodeInvalidEmail  = "invalid-email"
	CodeUserDisabled  = "user-disabled"
	CodeUserNotFound  = "user-not-found"
	CodeWrongPassword = "wrong-password"
	// CodeUnknown covers everything the provider reports that has no mapping.
	CodeUnknown = "unknown"
)

const genericLoginMessage = "Failed to login. Please try again."

var loginMessages = map[string]string{
	CodeInvalidEmail:  "Invalid email address.",
	CodeUserDisabled:  "This account has been disabled.",
	CodeUserNotFound:  "No account found with this email.",
	CodeWrongPassword: "Incorrect password.",
}

// ErrNoSession is returned when a token is missing, invalid, expired or revoked.
var ErrNoSession = errors.New("no active session")

// Error is a categorized sign-in failure.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "auth/" + e.Code + ": " + e.Err.Error()
	}
	return "auth/" + e.Code
}

// Unwrap returns the provider error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a categorized sign-in failure.
func NewError(code string, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

// LoginMessage maps a sign-in error to the text shown on the login form.
// Unmapped codes and non-auth errors get the generic message.
func LoginMessage(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) {
		if msg, ok := loginMessages[authErr.Code]; ok {
			return msg
		}
	}

	return genericLoginMessage
}

// Identity is who a provider says signed in.
type Identity struct {
	UID   string
	Email string
}

// Provider verifies email/password credentials.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
}

// Session is an authenticated admin session.
type Session struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	// Token is the signed session token, never serialized in responses.
	Token string `json:"-"`
}
