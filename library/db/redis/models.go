package redis

import "time"

// AuditEvent is one successful admin mutation.
type AuditEvent struct {
	EventID   string    `json:"event_id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}
