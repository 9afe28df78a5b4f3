package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/db/memory"
)

func TestExportSubscribers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	col := store.Collection(model.SubscribersCollection)
	for _, sub := range []model.Subscription{
		{Email: "old@envo.blog", SubscribedAt: "2024-01-02T10:00:00.000Z"},
		{Email: "new@envo.blog", SubscribedAt: "2024-03-04T10:00:00.000Z"},
	} {
		_, err := col.Insert(ctx, sub)
		require.NoError(t, err)
	}

	orig := openStore
	openStore = func(context.Context) (docstore.Store, error) { return store, nil }
	t.Cleanup(func() { openStore = orig })

	dir := filepath.Join(t.TempDir(), "out")
	path, err := exportSubscribers(ctx, dir)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filepath.Base(path), "subscriptions-"))
	require.Equal(t, ".csv", filepath.Ext(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Email,Subscription Date\nnew@envo.blog,2024-03-04\nold@envo.blog,2024-01-02", string(body))
}
