package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Laisky/envo-blog/library/db/docstore"
)

func TestIsNotFound(t *testing.T) {
	require.True(t, isNotFound(status.Error(codes.NotFound, "missing")))
	require.False(t, isNotFound(status.Error(codes.Unavailable, "down")))
	require.False(t, isNotFound(errors.New("plain")))
}

type emulatorDoc struct {
	Email string `firestore:"email"`
	At    string `firestore:"at"`
}

// TestEmulatorRoundTrip runs only when a firestore emulator is reachable.
func TestEmulatorRoundTrip(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDB(ctx, "envo-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	col := db.Collection("emulator_" + time.Now().Format("150405.000000"))

	id, err := col.InsertUnique(ctx, "email", "a@x.com", emulatorDoc{Email: "a@x.com", At: "1"})
	require.NoError(t, err)

	_, err = col.InsertUnique(ctx, "email", "a@x.com", emulatorDoc{Email: "a@x.com", At: "2"})
	require.ErrorIs(t, err, docstore.ErrDuplicate)

	doc, err := col.Get(ctx, id)
	require.NoError(t, err)
	var got emulatorDoc
	require.NoError(t, doc.DataTo(&got))
	require.Equal(t, "1", got.At)

	require.ErrorIs(t, col.Replace(ctx, "nope", emulatorDoc{}), docstore.ErrNotFound)
	require.NoError(t, col.Remove(ctx, id))

	_, err = col.Get(ctx, id)
	require.ErrorIs(t, err, docstore.ErrNotFound)
}
