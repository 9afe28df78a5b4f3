package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"

	"github.com/Laisky/envo-blog/library/jwt"
)

// DefaultSessionTTL is how long a session lasts without an explicit sign-out.
const DefaultSessionTTL = 12 * time.Hour

// Registry records live sessions so that sign-out revokes a token before it expires.
type Registry interface {
	SaveSession(ctx context.Context, id, email string, ttl time.Duration) error
	SessionActive(ctx context.Context, id string) (bool, error)
	RevokeSession(ctx context.Context, id string) error
}

// Manager issues, verifies and revokes admin sessions.
type Manager struct {
	provider Provider
	signer   *jwt.Signer
	registry Registry
	ttl      time.Duration
	newID    func() string
}

// NewManager wires a provider, a token signer and a session registry.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewManager(provider Provider, signer *jwt.Signer, registry Registry, ttl time.Duration) (*Manager, error) {
	if provider == nil || signer == nil || registry == nil {
		return nil, errors.New("auth provider, signer and registry are required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Manager{
		provider: provider,
		signer:   signer,
		registry: registry,
		ttl:      ttl,
		newID:    gutils.UUID7,
	}, nil
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// SignIn verifies credentials and opens a session.
// Credential failures are *Error values, see LoginMessage.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	identity, err := m.provider.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	id := m.newID()
	token, claims, err := m.signer.Sign(id, identity.UID, identity.Email, m.ttl)
	if err != nil {
		return nil, errors.Wrap(err, "sign session")
	}
	if err = m.registry.SaveSession(ctx, id, identity.Email, m.ttl); err != nil {
		return nil, errors.Wrap(err, "save session")
	}

	return sessionFromClaims(claims, token), nil
}

// Verify returns the session behind token, or ErrNoSession.
func (m *Manager) Verify(ctx context.Context, token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoSession
	}

	claims, err := m.signer.Parse(token)
	if err != nil {
		return nil, errors.Wrap(ErrNoSession, err.Error())
	}

	active, err := m.registry.SessionActive(ctx, claims.ID)
	if err != nil {
		return nil, errors.Wrap(err, "check session")
	}
	if !active {
		return nil, errors.Wrap(ErrNoSession, "session revoked")
	}

	return sessionFromClaims(claims, token), nil
}

// SignOut revokes the session.
func (m *Manager) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}

	return errors.Wrap(m.registry.RevokeSession(ctx, sess.ID), "revoke session")
}

func sessionFromClaims(claims *jwt.SessionClaims, token string) *Session {
	sess := &Session{
		ID:    claims.ID,
		UID:   claims.Subject,
		Email: claims.Email,
		Token: token,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}

	return sess
}

// MemoryRegistry is a Registry for a single process.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemoryRegistry creates an empty registry. A nil clock uses the wall clock.
func NewMemoryRegistry(now func() time.Time) *MemoryRegistry {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &MemoryRegistry{sessions: map[string]time.Time{}, now: now}
}

// SaveSession records id until now+ttl.
func (r *MemoryRegistry) SaveSession(_ context.Context, id, _ string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = r.now().Add(ttl)
	return nil
}

// SessionActive reports whether id is recorded and unexpired, dropping it once expired.
func (r *MemoryRegistry) SessionActive(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expires, ok := r.sessions[id]
	if !ok {
		return false, nil
	}
	if !r.now().Before(expires) {
		delete(r.sessions, id)
		return false, nil
	}

	return true, nil
}

// RevokeSession forgets id.
func (r *MemoryRegistry) RevokeSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}
