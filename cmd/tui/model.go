// Package tui is the terminal admin console: sign in, author and delete posts,
// manage subscribers. It drives the same workflow as the HTTP admin API.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Laisky/envo-blog/internal/web/admin/workflow"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/internal/web/respond"
	"github.com/Laisky/envo-blog/library/auth"
)

// opTimeout bounds one store round trip started from the console.
const opTimeout = 10 * time.Second

// ViewState represents the current view state of the TUI
type ViewState int

const (
	// ViewLogin asks for the admin credentials
	ViewLogin ViewState = iota
	// ViewPosts lists the posts
	ViewPosts
	// ViewEditor is the open post form
	ViewEditor
	// ViewConfirmDelete asks to confirm a delete
	ViewConfirmDelete
	// ViewSubscribers lists the subscribers
	ViewSubscribers
)

// Auth signs the console user in and out.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context) error
	// CurrentSession returns nil once the session expired or was revoked.
	CurrentSession(ctx context.Context) *auth.Session
}

// Workflows resolves the workflow of a session.
type Workflows interface {
	Get(sessionID, actor string) *workflow.Workflow
	Drop(sessionID string)
}

// Subscribers is the subscriber repository.
type Subscribers interface {
	ListAll(ctx context.Context) ([]*model.Subscriber, error)
	DeleteByID(ctx context.Context, id string) error
	Export(ctx context.Context) (name string, body []byte, err error)
}

// Deps are the services the console talks to.
type Deps struct {
	Auth        Auth
	Workflows   Workflows
	Subscribers Subscribers
	// ExportDir is where subscriber exports are written.
	ExportDir string
}

// SessionChanged is sent by the auth client when the session changes,
// nil meaning signed out.
type SessionChanged struct {
	Session *auth.Session
}

type signedInMsg struct {
	sess *auth.Session
	err  error
}

type workflowDoneMsg struct {
	sessionID string
	op        string
	id        string
	err       error
}

// sessionEndedMsg reports that a store call was refused because the session is gone.
type sessionEndedMsg struct{}

type subscribersMsg struct {
	subs []*model.Subscriber
	err  error
}

type noteMsg struct {
	note string
	err  error
}

type postItem struct{ post *model.Post }

func (i postItem) Title() string { return i.post.Title }
func (i postItem) Description() string {
	return fmt.Sprintf("%s • %s • %s", i.post.Category, i.post.CreatedAt, i.post.ID)
}
func (i postItem) FilterValue() string { return i.post.Title }

type subscriberItem struct{ sub *model.Subscriber }

func (i subscriberItem) Title() string       { return i.sub.Email }
func (i subscriberItem) Description() string { return i.sub.SubscribedAt }
func (i subscriberItem) FilterValue() string { return i.sub.Email }

// keyMap defines the key bindings for the TUI
type keyMap struct {
	Enter       key.Binding
	Back        key.Binding
	Tab         key.Binding
	ShiftTab    key.Binding
	Quit        key.Binding
	New         key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Refresh     key.Binding
	Subscribers key.Binding
	Export      key.Binding
	Logout      key.Binding
	Save        key.Binding
	Yes         key.Binding
	No          key.Binding
	Prev        key.Binding
	Next        key.Binding
}

var keys = keyMap{
	Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	ShiftTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new post")),
	Edit:        key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Subscribers: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "subscribers")),
	Export:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export csv")),
	Logout:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
	Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "publish")),
	Yes:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	No:          key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	Prev:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous category")),
	Next:        key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next category")),
}

// form field indexes; the content textarea comes after the inputs
const (
	fieldTitle = iota
	fieldExcerpt
	fieldCategory
	fieldCover
	fieldReadTime
	fieldAuthorName
	fieldAuthorAvatar
	fieldContent
)

var fieldLabels = []string{
	"Title", "Excerpt", "Category", "Cover image URL",
	"Read time (minutes)", "Author name", "Author avatar URL", "Content (markdown)",
}

// Model is the main TUI model following the Bubble Tea architecture
type Model struct {
	deps  Deps
	state ViewState

	sess *auth.Session
	wf   *workflow.Workflow

	login      []textinput.Model
	fields     []textinput.Model
	content    textarea.Model
	focusIndex int
	category   int

	posts       list.Model
	subscribers list.Model
	spinner     spinner.Model

	busy bool
	note string
	err  string

	width  int
	height int

	quitting bool
}

// NewModel creates the console on the sign-in view.
func NewModel(deps Deps) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(primaryColor).
		BorderForeground(primaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(secondaryColor)

	posts := list.New(nil, delegate, 0, 0)
	posts.Title = "envo posts"
	posts.SetShowStatusBar(false)
	posts.SetFilteringEnabled(false)
	posts.Styles.Title = headerStyle

	subs := list.New(nil, delegate, 0, 0)
	subs.Title = "Subscribers"
	subs.SetShowStatusBar(false)
	subs.SetFilteringEnabled(false)
	subs.Styles.Title = headerStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = progressStyle

	return Model{
		deps:        deps,
		state:       ViewLogin,
		login:       createLoginInputs(),
		fields:      createFormInputs(),
		content:     createContentInput(),
		posts:       posts,
		subscribers: subs,
		spinner:     sp,
	}
}

func createLoginInputs() []textinput.Model {
	inputs := make([]textinput.Model, 2)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "admin@envo.blog"
	inputs[0].Focus()
	inputs[0].CharLimit = 256
	inputs[0].Width = 40
	inputs[0].Prompt = "✉ "
	inputs[0].PromptStyle = inputLabelStyle

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "password"
	inputs[1].CharLimit = 256
	inputs[1].Width = 40
	inputs[1].Prompt = "🔑 "
	inputs[1].PromptStyle = inputLabelStyle
	inputs[1].EchoMode = textinput.EchoPassword

	return inputs
}

func createFormInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldContent)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = 512
		inputs[i].Width = 60
		inputs[i].Prompt = "› "
		inputs[i].PromptStyle = inputLabelStyle
	}
	inputs[fieldCategory].Placeholder = "↑/↓ to choose"
	inputs[fieldReadTime].CharLimit = 4

	return inputs
}

func createContentInput() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "## Heading\n\nWrite the post in markdown..."
	ta.SetWidth(80)
	ta.SetHeight(10)
	ta.CharLimit = 0

	return ta
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.posts.SetSize(msg.Width-4, msg.Height-8)
		m.subscribers.SetSize(msg.Width-4, msg.Height-8)
		m.content.SetWidth(max(msg.Width-8, 20))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case signedInMsg:
		return m.onSignedIn(msg)

	case SessionChanged:
		if msg.Session == nil && m.sess != nil {
			m.signedOut("signed out")
		}
		return m, nil

	case sessionEndedMsg:
		m.busy = false
		if m.sess != nil {
			m.signedOut("")
		}
		m.err = "session ended, please sign in again"
		return m, nil

	case workflowDoneMsg:
		return m.onWorkflowDone(msg)

	case subscribersMsg:
		m.busy = false
		if m.sess == nil {
			return m, nil
		}
		if msg.err != nil {
			m.err = respond.Classify(msg.err, respond.Load, "subscribers").Message
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.subs))
		for _, sub := range msg.subs {
			items = append(items, subscriberItem{sub})
		}
		return m, m.subscribers.SetItems(items)

	case noteMsg:
		m.busy = false
		if msg.err != nil {
			m.err = respond.Classify(msg.err, respond.Save, "subscribers").Message
		} else {
			m.note = msg.note
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}

		m.err = ""
		switch m.state {
		case ViewLogin:
			return m.handleLogin(msg)
		case ViewPosts:
			return m.handlePosts(msg)
		case ViewEditor:
			return m.handleEditor(msg)
		case ViewConfirmDelete:
			return m.handleConfirmDelete(msg)
		case ViewSubscribers:
			return m.handleSubscribers(msg)
		}
	}

	return m, nil
}

func (m Model) handleLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.ShiftTab):
		m.focusIndex = (m.focusIndex + 1) % len(m.login)
		return m, m.focusLogin()

	case key.Matches(msg, keys.Enter):
		if m.login[0].Value() == "" || m.login[1].Value() == "" {
			m.err = "email and password are required"
			return m, nil
		}
		m.busy = true
		email, password := m.login[0].Value(), m.login[1].Value()
		a := m.deps.Auth
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			sess, err := a.SignIn(ctx, email, password)
			return signedInMsg{sess: sess, err: err}
		}
	}

	var cmd tea.Cmd
	m.login[m.focusIndex], cmd = m.login[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) focusLogin() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.login {
		if i == m.focusIndex {
			cmd = m.login[i].Focus()
		} else {
			m.login[i].Blur()
		}
	}
	return cmd
}

func (m Model) onSignedIn(msg signedInMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.err = auth.LoginMessage(msg.err)
		return m, nil
	}

	m.sess = msg.sess
	m.wf = m.deps.Workflows.Get(msg.sess.ID, msg.sess.Email)
	m.login[1].SetValue("")
	m.state = ViewPosts
	m.note = "signed in as " + msg.sess.Email
	m.busy = true
	return m, m.runWorkflow("refresh", func(ctx context.Context, wf *workflow.Workflow) (string, error) {
		return "", wf.Refresh(ctx)
	})
}

func (m *Model) signedOut(note string) {
	if m.sess != nil {
		m.deps.Workflows.Drop(m.sess.ID)
	}
	m.sess = nil
	m.wf = nil
	m.state = ViewLogin
	m.focusIndex = 0
	m.note = note
}

// guarded runs fn off the update loop, only while the session is still valid.
func (m Model) guarded(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	a := m.deps.Auth
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if a.CurrentSession(ctx) == nil {
			return sessionEndedMsg{}
		}
		return fn(ctx)
	}
}

// runWorkflow runs a store bound workflow operation off the update loop.
func (m Model) runWorkflow(op string, fn func(ctx context.Context, wf *workflow.Workflow) (string, error)) tea.Cmd {
	wf, sessionID := m.wf, m.sess.ID
	return m.guarded(func(ctx context.Context) tea.Msg {
		id, err := fn(ctx, wf)
		return workflowDoneMsg{sessionID: sessionID, op: op, id: id, err: err}
	})
}

func (m Model) onWorkflowDone(msg workflowDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	// the result of a session that has since ended
	if m.wf == nil || m.sess == nil || msg.sessionID != m.sess.ID {
		return m, nil
	}

	if msg.err != nil {
		verb := respond.Save
		if msg.op == "refresh" || msg.op == "edit" {
			verb = respond.Load
		}
		m.err = respond.Classify(msg.err, verb, "posts").Message

		// a vanished post closes the form and leaves the list
		if snap := m.wf.Snapshot(); m.state == ViewEditor && snap.State == workflow.StateIdle.String() {
			m.state = ViewPosts
			return m, m.setPosts(snap.Posts)
		}
		return m, nil
	}

	snap := m.wf.Snapshot()
	switch msg.op {
	case "edit":
		m.loadForm(snap.Draft)
		m.state = ViewEditor
		return m, m.focusForm()
	case "submit":
		m.note = "published " + msg.id
		m.state = ViewPosts
	case "delete":
		m.note = "deleted " + msg.id
		m.state = ViewPosts
	}

	return m, m.setPosts(snap.Posts)
}

func (m *Model) setPosts(posts []*model.Post) tea.Cmd {
	items := make([]list.Item, 0, len(posts))
	for _, p := range posts {
		items = append(items, postItem{p})
	}
	return m.posts.SetItems(items)
}

func (m Model) selectedPost() *model.Post {
	if item, ok := m.posts.SelectedItem().(postItem); ok {
		return item.post
	}
	return nil
}

func (m Model) handlePosts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.New):
		if err := m.wf.NewPost(); err != nil {
			m.err = respond.Classify(err, respond.Save, "posts").Message
			return m, nil
		}
		m.loadForm(m.wf.Snapshot().Draft)
		m.state = ViewEditor
		return m, m.focusForm()

	case key.Matches(msg, keys.Edit):
		post := m.selectedPost()
		if post == nil {
			return m, nil
		}
		m.busy = true
		id := post.ID
		return m, m.runWorkflow("edit", func(ctx context.Context, wf *workflow.Workflow) (string, error) {
			return id, wf.EditPost(ctx, id)
		})

	case key.Matches(msg, keys.Delete):
		post := m.selectedPost()
		if post == nil {
			return m, nil
		}
		if err := m.wf.RequestDelete(post.ID); err != nil {
			m.err = respond.Classify(err, respond.Save, "posts").Message
			return m, nil
		}
		m.state = ViewConfirmDelete
		return m, nil

	case key.Matches(msg, keys.Refresh):
		m.busy = true
		return m, m.runWorkflow("refresh", func(ctx context.Context, wf *workflow.Workflow) (string, error) {
			return "", wf.Refresh(ctx)
		})

	case key.Matches(msg, keys.Subscribers):
		m.state = ViewSubscribers
		m.busy = true
		return m, m.loadSubscribers()

	case key.Matches(msg, keys.Logout):
		a := m.deps.Auth
		m.signedOut("signed out")
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			if err := a.SignOut(ctx); err != nil {
				return noteMsg{err: err}
			}
			return noteMsg{note: "signed out"}
		}
	}

	var cmd tea.Cmd
	m.posts, cmd = m.posts.Update(msg)
	return m, cmd
}

func (m *Model) loadForm(draft *model.Draft) {
	if draft == nil {
		d := model.NewDraft()
		draft = &d
	}

	m.fields[fieldTitle].SetValue(draft.Title)
	m.fields[fieldExcerpt].SetValue(draft.Excerpt)
	m.fields[fieldCover].SetValue(draft.CoverImage)
	m.fields[fieldReadTime].SetValue(strconv.Itoa(draft.ReadTime))
	m.fields[fieldAuthorName].SetValue(draft.Author.Name)
	m.fields[fieldAuthorAvatar].SetValue(draft.Author.Avatar)
	m.content.SetValue(draft.Content)

	m.category = -1
	for i, c := range model.Categories {
		if c == draft.Category {
			m.category = i
		}
	}
	m.fields[fieldCategory].SetValue(draft.Category)
	m.focusIndex = fieldTitle
}

// formDraft reads the form back into a draft. createdAt is owned by the workflow.
func (m Model) formDraft() model.Draft {
	readTime, err := strconv.Atoi(m.fields[fieldReadTime].Value())
	if err != nil {
		readTime = 0
	}

	return model.Draft{
		Title:      m.fields[fieldTitle].Value(),
		Excerpt:    m.fields[fieldExcerpt].Value(),
		Content:    m.content.Value(),
		Category:   m.fields[fieldCategory].Value(),
		CoverImage: m.fields[fieldCover].Value(),
		ReadTime:   readTime,
		Author: model.Author{
			Name:   m.fields[fieldAuthorName].Value(),
			Avatar: m.fields[fieldAuthorAvatar].Value(),
		},
	}
}

func (m *Model) focusForm() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.fields {
		if i == m.focusIndex {
			cmd = m.fields[i].Focus()
		} else {
			m.fields[i].Blur()
		}
	}
	if m.focusIndex == fieldContent {
		cmd = m.content.Focus()
	} else {
		m.content.Blur()
	}
	return cmd
}

func (m Model) handleEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		if err := m.wf.Cancel(); err != nil {
			m.err = respond.Classify(err, respond.Save, "posts").Message
			return m, nil
		}
		m.state = ViewPosts
		return m, nil

	case key.Matches(msg, keys.Save):
		if err := m.wf.UpdateDraft(m.formDraft()); err != nil {
			m.err = respond.Classify(err, respond.Save, "posts").Message
			return m, nil
		}
		m.busy = true
		return m, m.runWorkflow("submit", func(ctx context.Context, wf *workflow.Workflow) (string, error) {
			return wf.Submit(ctx)
		})

	case key.Matches(msg, keys.Tab):
		m.focusIndex = (m.focusIndex + 1) % (fieldContent + 1)
		return m, m.focusForm()

	case key.Matches(msg, keys.ShiftTab):
		m.focusIndex = (m.focusIndex + fieldContent) % (fieldContent + 1)
		return m, m.focusForm()

	case m.focusIndex == fieldCategory && key.Matches(msg, keys.Prev, keys.Next):
		n := len(model.Categories)
		if key.Matches(msg, keys.Next) {
			m.category = (m.category + 1) % n
		} else {
			m.category = (m.category - 1 + n) % n
		}
		m.fields[fieldCategory].SetValue(model.Categories[m.category])
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focusIndex {
	case fieldContent:
		m.content, cmd = m.content.Update(msg)
	case fieldCategory:
		// chosen from the list only
	default:
		m.fields[m.focusIndex], cmd = m.fields[m.focusIndex].Update(msg)
	}
	return m, cmd
}

func (m Model) handleConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Yes):
		m.busy = true
		target := m.wf.Snapshot().DeleteTarget
		return m, m.runWorkflow("delete", func(ctx context.Context, wf *workflow.Workflow) (string, error) {
			return target, wf.ConfirmDelete(ctx)
		})

	case key.Matches(msg, keys.No):
		if err := m.wf.CancelDelete(); err != nil {
			m.err = respond.Classify(err, respond.Save, "posts").Message
			return m, nil
		}
		m.state = ViewPosts
	}

	return m, nil
}

func (m Model) loadSubscribers() tea.Cmd {
	subs := m.deps.Subscribers
	return m.guarded(func(ctx context.Context) tea.Msg {
		found, err := subs.ListAll(ctx)
		return subscribersMsg{subs: found, err: err}
	})
}

func (m Model) handleSubscribers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	subs := m.deps.Subscribers
	switch {
	case key.Matches(msg, keys.Back):
		m.state = ViewPosts
		return m, nil

	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Refresh):
		m.busy = true
		return m, m.loadSubscribers()

	case key.Matches(msg, keys.Delete):
		item, ok := m.subscribers.SelectedItem().(subscriberItem)
		if !ok {
			return m, nil
		}
		m.busy = true
		id := item.sub.ID
		return m, m.guarded(func(ctx context.Context) tea.Msg {
			if err := subs.DeleteByID(ctx, id); err != nil {
				return subscribersMsg{err: err}
			}
			found, err := subs.ListAll(ctx)
			return subscribersMsg{subs: found, err: err}
		})

	case key.Matches(msg, keys.Export):
		m.busy = true
		dir := m.deps.ExportDir
		return m, m.guarded(func(ctx context.Context) tea.Msg {
			name, body, err := subs.Export(ctx)
			if err != nil {
				return noteMsg{err: err}
			}
			path := filepath.Join(dir, name)
			if err = os.WriteFile(path, body, 0o644); err != nil {
				return noteMsg{err: err}
			}
			return noteMsg{note: "exported to " + path}
		})
	}

	var cmd tea.Cmd
	m.subscribers, cmd = m.subscribers.Update(msg)
	return m, cmd
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return subtitleStyle.Render("Goodbye!\n")
	}

	var body string
	switch m.state {
	case ViewLogin:
		body = m.renderLogin()
	case ViewPosts:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.posts.View(),
			helpStyle.Render("n new • e edit • d delete • r refresh • s subscribers • o sign out • q quit"),
		)
	case ViewEditor:
		body = m.renderEditor()
	case ViewConfirmDelete:
		body = boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			warnStyle.Render("Delete post "+m.wf.Snapshot().DeleteTarget+"?"),
			helpStyle.Render("y confirm • n cancel"),
		))
	case ViewSubscribers:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.subscribers.View(),
			helpStyle.Render("d delete • x export csv • r refresh • esc back"),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatus())
}

func (m Model) renderLogin() string {
	labels := []string{"Email:", "Password:"}
	rows := []string{headerStyle.Render("envo admin sign in")}
	for i, input := range m.login {
		rows = append(rows, inputLabelStyle.Render(labels[i]), input.View(), "")
	}
	rows = append(rows, helpStyle.Render("tab next field • enter sign in • esc quit"))

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderEditor() string {
	title := "New post"
	if snap := m.wf.Snapshot(); snap.EditingID != "" {
		title = "Edit post " + snap.EditingID
	}

	rows := []string{headerStyle.Render(title)}
	for i, input := range m.fields {
		rows = append(rows, inputLabelStyle.Render(fieldLabels[i]), input.View())
	}
	rows = append(rows,
		inputLabelStyle.Render(fieldLabels[fieldContent]),
		m.content.View(),
		helpStyle.Render("tab next field • ↑/↓ category • ctrl+s publish • esc cancel"),
	)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderStatus() string {
	switch {
	case m.busy:
		return m.spinner.View() + " working..."
	case m.err != "":
		return errorStyle.Render("✗ " + m.err)
	case m.note != "":
		return successStyle.Render("✓ " + m.note)
	case m.sess != nil:
		return statusBarStyle.Render(m.sess.Email)
	default:
		return ""
	}
}
