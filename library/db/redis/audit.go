package redis

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
)

// auditKey returns the list key for the UTC day of t.
func auditKey(t time.Time) string {
	return KeyPrefixAudit + t.UTC().Format("2006-01-02")
}

// PushAudit appends an admin mutation to today's audit list.
func (db *DB) PushAudit(ctx context.Context, actor, action, target string) error {
	now := gutils.Clock.GetUTCNow()
	event := &AuditEvent{
		EventID:   gutils.UUID7(),
		Actor:     actor,
		Action:    action,
		Target:    target,
		CreatedAt: now,
	}

	if err := db.utils.RPush(ctx, auditKey(now), []interface{}{event}); err != nil {
		return errors.Wrap(err, "rpush")
	}

	return nil
}
