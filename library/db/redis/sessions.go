package redis

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
)

// SaveSession marks session id as live for ttl.
func (db *DB) SaveSession(ctx context.Context, id, email string, ttl time.Duration) error {
	if err := db.cli.Set(ctx, KeyPrefixSession+id, email, ttl).Err(); err != nil {
		return errors.Wrap(err, "save session")
	}

	return nil
}

// SessionActive reports whether session id is live.
func (db *DB) SessionActive(ctx context.Context, id string) (bool, error) {
	n, err := db.cli.Exists(ctx, KeyPrefixSession+id).Result()
	if err != nil {
		return false, errors.Wrap(err, "check session")
	}

	return n > 0, nil
}

// RevokeSession ends session id. Revoking an unknown session is not an error.
func (db *DB) RevokeSession(ctx context.Context, id string) error {
	if err := db.cli.Del(ctx, KeyPrefixSession+id).Err(); err != nil {
		return errors.Wrap(err, "revoke session")
	}

	return nil
}
