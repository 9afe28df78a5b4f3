package dao

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/db/memory"
)

func newTestBlog(t *testing.T) *Blog {
	t.Helper()
	var (
		mu sync.Mutex
		n  int
	)
	store := memory.New().WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("p%d", n)
	})

	return New(nil, store)
}

func TestPostsRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newTestBlog(t)

	draft := &model.Draft{
		Title:     "Solar 101",
		Category:  "Renewable Energy",
		ReadTime:  4,
		Author:    model.Author{Name: "Ann", Avatar: "https://a/x.png"},
		CreatedAt: "2024-05-01T09:30:00.000Z",
	}
	id, err := d.InsertPost(ctx, draft)
	require.NoError(t, err)
	require.Equal(t, "p1", id)

	got, err := d.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, *draft, got.Draft)

	edited := *draft
	edited.Title = "Solar 102"
	require.NoError(t, d.ReplacePost(ctx, id, &edited))
	got, err = d.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Solar 102", got.Title)

	err = d.ReplacePost(ctx, "nope", &edited)
	require.True(t, errors.Is(err, model.ErrPostNotFound))

	posts, err := d.ListPosts(ctx, docstore.Query{}.Where("category", "Renewable Energy"))
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, d.RemovePost(ctx, id))
	require.NoError(t, d.RemovePost(ctx, id))
	_, err = d.GetPost(ctx, id)
	require.True(t, errors.Is(err, model.ErrPostNotFound))
}

func TestInsertSubscriberDuplicate(t *testing.T) {
	ctx := context.Background()
	d := newTestBlog(t)

	sub := &model.Subscription{Email: "a@x.com", SubscribedAt: "2024-05-01T09:30:00.000Z"}
	_, err := d.InsertSubscriber(ctx, sub)
	require.NoError(t, err)

	_, err = d.InsertSubscriber(ctx, sub)
	require.True(t, errors.Is(err, model.ErrDuplicateEmail))

	subs, err := d.ListSubscribers(ctx, docstore.Query{})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "a@x.com", subs[0].Email)

	require.NoError(t, d.RemoveSubscriber(ctx, subs[0].ID))
	subs, err = d.ListSubscribers(ctx, docstore.Query{})
	require.NoError(t, err)
	require.Empty(t, subs)
}

type fakePutter struct {
	bucket, key string
	opts        minio.PutObjectOptions
	body        []byte
	err         error
}

func (f *fakePutter) PutObject(_ context.Context, bucketName, objectName string,
	reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}

	f.bucket, f.key, f.opts = bucketName, objectName, opts
	f.body, _ = io.ReadAll(reader)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func TestCoversUpload(t *testing.T) {
	putter := &fakePutter{}
	covers := newCovers(nil, putter, S3Config{
		Endpoint: "s3.local:9000",
		Bucket:   "blog",
		Prefix:   "/envo/",
	})

	url, err := covers.Upload(context.Background(), "Sun.PNG", bytes.NewReader([]byte("img")), 3)
	require.NoError(t, err)
	require.Equal(t, "blog", putter.bucket)
	require.True(t, strings.HasPrefix(putter.key, "envo/covers/"), putter.key)
	require.True(t, strings.HasSuffix(putter.key, ".png"), putter.key)
	require.Equal(t, "image/png", putter.opts.ContentType)
	require.Equal(t, []byte("img"), putter.body)
	require.Equal(t, "http://s3.local:9000/blog/"+putter.key, url)
}

func TestCoversUploadRejects(t *testing.T) {
	covers := newCovers(nil, &fakePutter{}, S3Config{Endpoint: "s3", Bucket: "b", PublicURL: "https://cdn/"})
	ctx := context.Background()

	_, err := covers.Upload(ctx, "a.exe", bytes.NewReader([]byte("x")), 1)
	require.Error(t, err)
	_, err = covers.Upload(ctx, "a.png", bytes.NewReader(nil), 0)
	require.Error(t, err)
	_, err = covers.Upload(ctx, "a.png", bytes.NewReader(nil), MaxCoverSize+1)
	require.Error(t, err)

	failing := newCovers(nil, &fakePutter{err: errors.New("boom")}, S3Config{Endpoint: "s3", Bucket: "b"})
	_, err = failing.Upload(ctx, "a.png", bytes.NewReader([]byte("x")), 1)
	require.ErrorContains(t, err, "boom")
}
