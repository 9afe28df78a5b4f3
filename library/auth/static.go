package auth

import (
	"context"
	"net/mail"
	"strings"

	"github.com/Laisky/errors/v2"
	"golang.org/x/crypto/bcrypt"
)

// Account is one admin configured in settings.
type Account struct {
	Email        string
	PasswordHash string
	Disabled     bool
}

// StaticProvider checks credentials against a fixed list of bcrypt-hashed accounts.
type StaticProvider struct {
	accounts map[string]Account
}

// NewStaticProvider indexes accounts by lower-cased email.
func NewStaticProvider(accounts []Account) (*StaticProvider, error) {
	p := &StaticProvider{accounts: make(map[string]Account, len(accounts))}
	for _, acc := range accounts {
		key := strings.ToLower(strings.TrimSpace(acc.Email))
		if key == "" {
			return nil, errors.New("static account without email")
		}
		if _, err := bcrypt.Cost([]byte(acc.PasswordHash)); err != nil {
			return nil, errors.Wrapf(err, "password hash of %q", acc.Email)
		}
		p.accounts[key] = acc
	}

	return p, nil
}

// HashPassword returns the bcrypt hash to put in settings.auth.users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	return string(hash), nil
}

// SignIn verifies the credentials against the configured accounts.
func (p *StaticProvider) SignIn(_ context.Context, email, password string) (*Identity, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, NewError(CodeInvalidEmail, errors.Errorf("invalid email %q", email))
	}

	acc, ok := p.accounts[strings.ToLower(email)]
	if !ok {
		return nil, NewError(CodeUserNotFound, errors.Errorf("no account %q", email))
	}
	if acc.Disabled {
		return nil, NewError(CodeUserDisabled, errors.Errorf("account %q disabled", email))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, NewError(CodeWrongPassword, errors.Wrap(err, "compare password"))
	}

	return &Identity{UID: "static:" + strings.ToLower(email), Email: acc.Email}, nil
}
