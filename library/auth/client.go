package auth

import (
	"context"
	"sync"

	"github.com/Laisky/errors/v2"
)

// Client holds the signed-in session of one interactive user and notifies
// listeners when it changes. It has an explicit lifecycle: create it with
// NewClient, end it with Close.
type Client struct {
	mgr *Manager

	mu        sync.Mutex
	current   *Session
	listeners map[int]func(*Session)
	nextID    int
}

// NewClient creates a client with no session.
func NewClient(mgr *Manager) *Client {
	return &Client{
		mgr:       mgr,
		listeners: map[int]func(*Session){},
	}
}

// SignIn opens a session and makes it current.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := c.mgr.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	c.setCurrent(sess)
	return sess, nil
}

// SignOut revokes the current session, if any.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		return nil
	}

	if err := c.mgr.SignOut(ctx, sess); err != nil {
		return errors.WithStack(err)
	}

	c.setCurrent(nil)
	return nil
}

// CurrentSession returns the current session, or nil when signed out.
// A session that expired or was revoked elsewhere is dropped.
func (c *Client) CurrentSession(ctx context.Context) *Session {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		return nil
	}

	verified, err := c.mgr.Verify(ctx, sess.Token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			c.setCurrent(nil)
		}
		return nil
	}

	return verified
}

// Subscribe registers fn for session changes, nil meaning signed out.
// It returns a function that removes the listener.
func (c *Client) Subscribe(fn func(*Session)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Close signs out and drops every listener.
func (c *Client) Close(ctx context.Context) error {
	err := c.SignOut(ctx)

	c.mu.Lock()
	c.listeners = map[int]func(*Session){}
	c.mu.Unlock()

	return err
}

func (c *Client) setCurrent(sess *Session) {
	c.mu.Lock()
	changed := c.current != sess
	c.current = sess
	listeners := make([]func(*Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(sess)
	}
}
