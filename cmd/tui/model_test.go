package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/envo-blog/internal/web/admin/workflow"
	"github.com/Laisky/envo-blog/internal/web/blog/dao"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/internal/web/blog/service"
	"github.com/Laisky/envo-blog/library/auth"
	"github.com/Laisky/envo-blog/library/db/memory"
)

type fakeAuth struct {
	mu        sync.Mutex
	current   *auth.Session
	signedOut bool
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	if password != "secret" {
		return nil, auth.NewError(auth.CodeWrongPassword, nil)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = &auth.Session{ID: "s1", UID: "u1", Email: email}
	return f.current, nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = true
	f.current = nil
	return nil
}

func (f *fakeAuth) CurrentSession(context.Context) *auth.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// revoke ends the session behind the console's back, as an expiry or a web logout would.
func (f *fakeAuth) revoke() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
}

type fixture struct {
	auth      *fakeAuth
	posts     *service.PostService
	subs      *service.SubscriberService
	workflows *workflow.Registry
	exportDir string
}

func newFixture(t *testing.T) *fixture {
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
	d := dao.New(nil, store)
	posts := service.NewPostService(nil, d)

	return &fixture{
		auth:      &fakeAuth{},
		posts:     posts,
		subs:      service.NewSubscriberService(nil, d),
		workflows: workflow.NewRegistry(posts, nil, nil, 0),
		exportDir: t.TempDir(),
	}
}

func (f *fixture) model() Model {
	m := NewModel(Deps{
		Auth:        f.auth,
		Workflows:   f.workflows,
		Subscribers: f.subs,
		ExportDir:   f.exportDir,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to m and returns the new model and the command it asked for.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// settle runs cmd and feeds its message back, as the bubbletea runtime would.
func settle(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	return send(t, m, cmd())
}

func signIn(t *testing.T, m Model, password string) Model {
	t.Helper()
	m.login[0].SetValue("admin@envo.blog")
	m.login[1].SetValue(password)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.busy)
	m, cmd = settle(t, m, cmd)
	if m.sess != nil {
		m, _ = settle(t, m, cmd)
	}
	return m
}

func TestLoginFailureShowsMappedMessage(t *testing.T) {
	f := newFixture(t)
	m := signIn(t, f.model(), "nope")

	require.Equal(t, ViewLogin, m.state)
	require.Equal(t, "Incorrect password.", m.err)
	require.False(t, m.busy)
	require.Zero(t, f.workflows.Len())
}

func TestLoginRequiresBothFields(t *testing.T) {
	f := newFixture(t)
	m, cmd := send(t, f.model(), tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Equal(t, "email and password are required", m.err)
}

func TestAuthorAndDeletePost(t *testing.T) {
	f := newFixture(t)
	m := signIn(t, f.model(), "secret")
	require.Equal(t, ViewPosts, m.state)
	require.Equal(t, 1, f.workflows.Len())

	// new post with no category is rejected and the form stays open
	m, _ = send(t, m, runes("n"))
	require.Equal(t, ViewEditor, m.state)
	require.Equal(t, "5", m.fields[fieldReadTime].Value())
	m.fields[fieldTitle].SetValue("Solar")
	m.content.SetValue("## Intro\n\nhello")

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = settle(t, m, cmd)
	require.Equal(t, ViewEditor, m.state)
	require.Contains(t, m.err, "unknown category")

	// pick the first category from the list
	m.focusIndex = fieldCategory
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, model.Categories[0], m.fields[fieldCategory].Value())

	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = settle(t, m, cmd)
	require.Empty(t, m.err)
	require.Equal(t, ViewPosts, m.state)
	require.Equal(t, "published p1", m.note)

	stored, err := f.posts.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Solar", stored.Title)
	require.Equal(t, model.Categories[0], stored.Category)
	require.NotEmpty(t, stored.CreatedAt)

	// delete asks first, cancel keeps the post
	m, _ = send(t, m, runes("d"))
	require.Equal(t, ViewConfirmDelete, m.state)
	m, _ = send(t, m, runes("n"))
	require.Equal(t, ViewPosts, m.state)
	require.Empty(t, m.wf.Snapshot().DeleteTarget)

	m, _ = send(t, m, runes("d"))
	m, cmd = send(t, m, runes("y"))
	m, _ = settle(t, m, cmd)
	require.Equal(t, ViewPosts, m.state)
	require.Equal(t, "deleted p1", m.note)
	require.Empty(t, m.wf.Snapshot().Posts)

	_, err = f.posts.GetByID(context.Background(), "p1")
	require.ErrorIs(t, err, model.ErrPostNotFound)
}

func TestEditKeepsCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := model.NewDraft()
	draft.Title = "Wind"
	draft.Category = model.Categories[2]
	draft.CreatedAt = "2024-05-01T09:30:00.000Z"
	id, err := f.posts.Create(ctx, draft)
	require.NoError(t, err)

	m := signIn(t, f.model(), "secret")
	require.Len(t, m.wf.Snapshot().Posts, 1)

	m, cmd := send(t, m, runes("e"))
	m, _ = settle(t, m, cmd)
	require.Equal(t, ViewEditor, m.state)
	require.Equal(t, "Wind", m.fields[fieldTitle].Value())
	require.Equal(t, model.Categories[2], m.fields[fieldCategory].Value())

	m.fields[fieldTitle].SetValue("Wind power")
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = settle(t, m, cmd)
	require.Equal(t, ViewPosts, m.state)

	stored, err := f.posts.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Wind power", stored.Title)
	require.Equal(t, "2024-05-01T09:30:00.000Z", stored.CreatedAt)
}

func TestEditorEscCancels(t *testing.T) {
	f := newFixture(t)
	m := signIn(t, f.model(), "secret")

	m, _ = send(t, m, runes("n"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, ViewPosts, m.state)
	require.Equal(t, workflow.StateIdle.String(), m.wf.Snapshot().State)
}

func TestSubscribersDeleteAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.subs.Add(ctx, "a@envo.blog")
	require.NoError(t, err)
	_, err = f.subs.Add(ctx, "b@envo.blog")
	require.NoError(t, err)

	m := signIn(t, f.model(), "secret")
	m, cmd := send(t, m, runes("s"))
	require.Equal(t, ViewSubscribers, m.state)
	m, _ = settle(t, m, cmd)
	require.Len(t, m.subscribers.Items(), 2)

	m, cmd = send(t, m, runes("d"))
	m, _ = settle(t, m, cmd)
	require.Len(t, m.subscribers.Items(), 1)

	m, cmd = send(t, m, runes("x"))
	m, _ = settle(t, m, cmd)
	require.Empty(t, m.err)
	require.Contains(t, m.note, "exported to ")

	entries, err := os.ReadDir(f.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	body, err := os.ReadFile(filepath.Join(f.exportDir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(body), "Email,Subscription Date\n")

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, ViewPosts, m.state)
}

func TestSignOut(t *testing.T) {
	f := newFixture(t)
	m := signIn(t, f.model(), "secret")

	m, cmd := send(t, m, runes("o"))
	require.Equal(t, ViewLogin, m.state)
	require.Nil(t, m.sess)
	require.Zero(t, f.workflows.Len())
	m, _ = settle(t, m, cmd)
	require.True(t, f.auth.signedOut)
	require.Equal(t, "signed out", m.note)
}

func TestSessionChangedToNilSignsOut(t *testing.T) {
	f := newFixture(t)
	m := signIn(t, f.model(), "secret")

	m, _ = send(t, m, SessionChanged{})
	require.Equal(t, ViewLogin, m.state)
	require.Zero(t, f.workflows.Len())
	require.NotEmpty(t, m.View())
}

func TestLateWorkflowResultAfterSignOutIsDropped(t *testing.T) {
	f := newFixture(t)
	m := signIn(t, f.model(), "secret")

	m, cmd := send(t, m, runes("r"))
	require.True(t, m.busy)
	result := cmd()

	m, _ = send(t, m, SessionChanged{})
	require.Equal(t, ViewLogin, m.state)
	require.Nil(t, m.wf)

	require.NotPanics(t, func() {
		m, _ = send(t, m, result)
	})
	require.Equal(t, ViewLogin, m.state)
	require.False(t, m.busy)
	require.Empty(t, m.err)
}

func TestRevokedSessionRefusesMutations(t *testing.T) {
	f := newFixture(t)
	m := signIn(t, f.model(), "secret")

	m, _ = send(t, m, runes("n"))
	m.fields[fieldTitle].SetValue("Solar")
	m.focusIndex = fieldCategory
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})

	f.auth.revoke()
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = settle(t, m, cmd)
	require.Equal(t, ViewLogin, m.state)
	require.Equal(t, "session ended, please sign in again", m.err)
	require.Zero(t, f.workflows.Len())

	found, err := f.posts.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestRevokedSessionRefusesSubscriberDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.subs.Add(ctx, "a@envo.blog")
	require.NoError(t, err)

	m := signIn(t, f.model(), "secret")
	m, cmd := send(t, m, runes("s"))
	m, _ = settle(t, m, cmd)
	require.Len(t, m.subscribers.Items(), 1)

	f.auth.revoke()
	m, cmd = send(t, m, runes("d"))
	m, _ = settle(t, m, cmd)
	require.Equal(t, ViewLogin, m.state)

	found, err := f.subs.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
}
