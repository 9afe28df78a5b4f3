package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/envo-blog/internal/web/blog/dao"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/internal/web/blog/service"
	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/db/memory"
)

type fakeRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *fakeRecorder) PushAudit(_ context.Context, actor, action, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, actor+" "+action+" "+target)
	return nil
}

// flakyPosts fails every call while failing is set.
type flakyPosts struct {
	Posts
	failing bool
}

func (p *flakyPosts) err() error {
	if p.failing {
		return docstore.Unavailable("test", errors.New("offline"))
	}
	return nil
}

func (p *flakyPosts) ListAll(ctx context.Context) ([]*model.Post, error) {
	if err := p.err(); err != nil {
		return nil, err
	}
	return p.Posts.ListAll(ctx)
}

func (p *flakyPosts) Create(ctx context.Context, d model.Draft) (string, error) {
	if err := p.err(); err != nil {
		return "", err
	}
	return p.Posts.Create(ctx, d)
}

func (p *flakyPosts) DeleteByID(ctx context.Context, id string) error {
	if err := p.err(); err != nil {
		return err
	}
	return p.Posts.DeleteByID(ctx, id)
}

var now = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newWorkflow(t *testing.T) (*Workflow, *flakyPosts, *fakeRecorder) {
	t.Helper()
	posts := &flakyPosts{Posts: service.NewPostService(nil, dao.New(nil, memory.New()))}
	rec := &fakeRecorder{}
	wf := New("admin@x.com", posts, rec, nil)
	wf.now = func() time.Time { return now }
	return wf, posts, rec
}

func fill(t *testing.T, wf *Workflow, title string) {
	t.Helper()
	d := model.NewDraft()
	d.Title = title
	d.Category = "Renewable Energy"
	d.CreatedAt = "1999-01-01T00:00:00.000Z"
	require.NoError(t, wf.UpdateDraft(d))
}

func TestAuthoringSubmit(t *testing.T) {
	ctx := context.Background()
	wf, _, rec := newWorkflow(t)

	require.NoError(t, wf.NewPost())
	snap := wf.Snapshot()
	require.Equal(t, "authoring", snap.State)
	require.Equal(t, model.DefaultReadTime, snap.Draft.ReadTime)
	require.Equal(t, model.Author{}, snap.Draft.Author)

	fill(t, wf, "Solar 101")
	id, err := wf.Submit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap = wf.Snapshot()
	require.Equal(t, "idle", snap.State)
	require.Nil(t, snap.Draft)
	require.Len(t, snap.Posts, 1)
	require.Equal(t, "Solar 101", snap.Posts[0].Title)
	require.Equal(t, "2024-05-01T09:30:00.000Z", snap.Posts[0].CreatedAt, "createdAt is set at submit")
	require.Equal(t, []string{"admin@x.com create_post " + id}, rec.events)
}

func TestEditingPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	wf, _, _ := newWorkflow(t)

	require.NoError(t, wf.NewPost())
	fill(t, wf, "Solar 101")
	id, err := wf.Submit(ctx)
	require.NoError(t, err)

	now = now.Add(48 * time.Hour)
	defer func() { now = now.Add(-48 * time.Hour) }()

	require.NoError(t, wf.EditPost(ctx, id))
	snap := wf.Snapshot()
	require.Equal(t, "editing", snap.State)
	require.Equal(t, id, snap.EditingID)
	require.Equal(t, "Solar 101", snap.Draft.Title)

	d := *snap.Draft
	d.Title = "Solar 102"
	d.CreatedAt = ""
	require.NoError(t, wf.UpdateDraft(d))
	_, err = wf.Submit(ctx)
	require.NoError(t, err)

	snap = wf.Snapshot()
	require.Equal(t, "Solar 102", snap.Posts[0].Title)
	require.Equal(t, "2024-05-01T09:30:00.000Z", snap.Posts[0].CreatedAt)
}

func TestEditPostNotInCache(t *testing.T) {
	ctx := context.Background()
	wf, posts, _ := newWorkflow(t)

	id, err := posts.Create(ctx, model.Draft{Title: "x", Category: "Sustainable Living", ReadTime: 1, CreatedAt: "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)
	require.NoError(t, wf.EditPost(ctx, id))
	require.Equal(t, StateEditing, wf.State())

	require.NoError(t, wf.Cancel())
	err = wf.EditPost(ctx, "missing")
	require.True(t, errors.Is(err, model.ErrPostNotFound))
	require.Equal(t, StateIdle, wf.State())
}

func TestSubmitEditOfVanishedPost(t *testing.T) {
	ctx := context.Background()
	wf, posts, _ := newWorkflow(t)

	require.NoError(t, wf.NewPost())
	fill(t, wf, "Solar 101")
	id, err := wf.Submit(ctx)
	require.NoError(t, err)
	require.Len(t, wf.Snapshot().Posts, 1)

	require.NoError(t, wf.EditPost(ctx, id))
	require.NoError(t, posts.DeleteByID(ctx, id))

	_, err = wf.Submit(ctx)
	require.ErrorIs(t, err, model.ErrPostNotFound)

	snap := wf.Snapshot()
	require.Equal(t, "idle", snap.State)
	require.Empty(t, snap.EditingID)
	require.Empty(t, snap.Posts)
	require.Equal(t, err.Error(), snap.LastError)
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	wf, _, _ := newWorkflow(t)

	require.True(t, errors.Is(wf.Cancel(), ErrInvalidTransition))
	require.True(t, errors.Is(wf.UpdateDraft(model.Draft{}), ErrInvalidTransition))
	_, err := wf.Submit(ctx)
	require.True(t, errors.Is(err, ErrInvalidTransition))

	require.NoError(t, wf.NewPost())
	require.True(t, errors.Is(wf.NewPost(), ErrInvalidTransition))
	require.True(t, errors.Is(wf.EditPost(ctx, "p1"), ErrInvalidTransition))

	require.NoError(t, wf.Cancel())
	require.Equal(t, StateIdle, wf.State())
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	wf, _, _ := newWorkflow(t)

	require.NoError(t, wf.NewPost())
	_, err := wf.Submit(ctx)
	require.True(t, errors.Is(err, model.ErrValidation))

	snap := wf.Snapshot()
	require.Equal(t, "authoring", snap.State)
	require.NotEmpty(t, snap.LastError)
	require.Empty(t, snap.Posts)
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	ctx := context.Background()
	wf, posts, rec := newWorkflow(t)

	require.NoError(t, wf.NewPost())
	fill(t, wf, "Solar 101")
	posts.failing = true
	_, err := wf.Submit(ctx)
	require.True(t, errors.Is(err, model.ErrStoreUnavailable))

	snap := wf.Snapshot()
	require.Equal(t, "authoring", snap.State)
	require.Equal(t, "Solar 101", snap.Draft.Title)
	require.False(t, snap.Pending)
	require.Empty(t, rec.events)

	posts.failing = false
	_, err = wf.Submit(ctx)
	require.NoError(t, err)
	require.Equal(t, StateIdle, wf.State())
}

func TestRefreshFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	wf, posts, _ := newWorkflow(t)

	require.NoError(t, wf.NewPost())
	fill(t, wf, "Solar 101")
	_, err := wf.Submit(ctx)
	require.NoError(t, err)

	posts.failing = true
	require.Error(t, wf.Refresh(ctx))
	snap := wf.Snapshot()
	require.Len(t, snap.Posts, 1)
	require.NotEmpty(t, snap.LastError)
}

func TestDeleteConfirmation(t *testing.T) {
	ctx := context.Background()
	wf, posts, rec := newWorkflow(t)

	require.NoError(t, wf.NewPost())
	fill(t, wf, "a")
	a, err := wf.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, wf.NewPost())
	fill(t, wf, "b")
	b, err := wf.Submit(ctx)
	require.NoError(t, err)

	require.True(t, errors.Is(wf.ConfirmDelete(ctx), ErrInvalidTransition))
	require.True(t, errors.Is(wf.CancelDelete(), ErrInvalidTransition))

	require.NoError(t, wf.RequestDelete(a))
	require.NoError(t, wf.RequestDelete(a))
	require.True(t, errors.Is(wf.RequestDelete(b), ErrDeletePending))

	require.NoError(t, wf.CancelDelete())
	require.Len(t, wf.Snapshot().Posts, 2)

	require.NoError(t, wf.RequestDelete(b))
	posts.failing = true
	require.Error(t, wf.ConfirmDelete(ctx))
	require.Equal(t, b, wf.Snapshot().DeleteTarget)

	posts.failing = false
	require.NoError(t, wf.ConfirmDelete(ctx))
	snap := wf.Snapshot()
	require.Empty(t, snap.DeleteTarget)
	require.Len(t, snap.Posts, 1)
	require.Equal(t, a, snap.Posts[0].ID)
	require.Contains(t, rec.events, "admin@x.com delete_post "+b)
}

// blockingPosts holds Create until release is closed.
type blockingPosts struct {
	Posts
	started chan struct{}
	release chan struct{}
}

func (p *blockingPosts) Create(ctx context.Context, d model.Draft) (string, error) {
	close(p.started)
	<-p.release
	return p.Posts.Create(ctx, d)
}

func TestSubmitWhilePending(t *testing.T) {
	ctx := context.Background()
	posts := &blockingPosts{
		Posts:   service.NewPostService(nil, dao.New(nil, memory.New())),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	wf := New("admin", posts, nil, nil)

	require.NoError(t, wf.NewPost())
	fill(t, wf, "Solar 101")

	done := make(chan error, 1)
	go func() {
		_, err := wf.Submit(ctx)
		done <- err
	}()
	<-posts.started

	require.True(t, wf.Snapshot().Pending)
	_, err := wf.Submit(ctx)
	require.True(t, errors.Is(err, ErrBusy))
	require.True(t, errors.Is(wf.Cancel(), ErrBusy))

	close(posts.release)
	require.NoError(t, <-done)
	require.False(t, wf.Snapshot().Pending)
	require.Len(t, wf.Snapshot().Posts, 1)
}

func TestRegistry(t *testing.T) {
	posts := service.NewPostService(nil, dao.New(nil, memory.New()))
	reg := NewRegistry(posts, nil, nil, time.Hour)
	clock := now
	reg.now = func() time.Time { return clock }

	a := reg.Get("s1", "a@x.com")
	require.Same(t, a, reg.Get("s1", "a@x.com"))
	b := reg.Get("s2", "b@x.com")
	require.NotSame(t, a, b)
	require.Equal(t, 2, reg.Len())

	reg.Drop("s1")
	require.Equal(t, 1, reg.Len())
	require.NotSame(t, a, reg.Get("s1", "a@x.com"))

	clock = clock.Add(30 * time.Minute)
	reg.Get("s1", "a@x.com")
	clock = clock.Add(45 * time.Minute)
	reg.Get("s1", "a@x.com")
	require.Equal(t, 1, reg.Len(), "idle s2 is evicted")
}
