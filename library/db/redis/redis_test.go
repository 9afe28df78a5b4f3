package redis

import (
	"context"
	"os"
	"testing"
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestAuditKey(t *testing.T) {
	day := time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("x", -2*3600))
	require.Equal(t, "envo/audit/2024-05-02", auditKey(day))
}

// TestSessionLifecycle runs only when REDIS_ADDR points at a disposable server.
func TestSessionLifecycle(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	db := NewDB(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Ping(ctx))

	id := gutils.UUID7()
	require.NoError(t, db.SaveSession(ctx, id, "admin@x.com", time.Minute))

	ok, err := db.SessionActive(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.RevokeSession(ctx, id))
	ok, err = db.SessionActive(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.PushAudit(ctx, "admin@x.com", "post.delete", "p1"))
}
