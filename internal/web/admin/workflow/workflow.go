// Package workflow is the admin content workflow: the form state of a post
// being authored or edited, the post list cache, and delete confirmation.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/jinzhu/copier"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/internal/web/blog/service"
	"github.com/Laisky/envo-blog/library/log"
)

// State is the form state of a workflow.
type State int

const (
	// StateIdle shows the post list only.
	StateIdle State = iota
	// StateAuthoring has the form open on a new draft.
	StateAuthoring
	// StateEditing has the form open on a draft copied from an existing post.
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthoring:
		return "authoring"
	case StateEditing:
		return "editing"
	default:
		return "unknown"
	}
}

// Posts is the post repository the workflow mutates.
type Posts interface {
	ListAll(ctx context.Context) ([]*model.Post, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Create(ctx context.Context, draft model.Draft) (string, error)
	Update(ctx context.Context, id string, draft model.Draft) error
	DeleteByID(ctx context.Context, id string) error
}

// Recorder keeps an audit trail of admin mutations.
type Recorder interface {
	PushAudit(ctx context.Context, actor, action, target string) error
}

// Snapshot is a read-only copy of a workflow.
type Snapshot struct {
	State string `json:"state"`
	// Draft is set while the form is open.
	Draft *model.Draft `json:"draft,omitempty"`
	// EditingID is the post being edited.
	EditingID string `json:"editingId,omitempty"`
	// DeleteTarget is the post awaiting delete confirmation.
	DeleteTarget string        `json:"deleteTarget,omitempty"`
	Pending      bool          `json:"pending"`
	Posts        []*model.Post `json:"posts"`
	// FetchedAt is when Posts was last read from the store.
	FetchedAt time.Time `json:"fetchedAt,omitzero"`
	// LastError is the message of the last failed operation.
	LastError string `json:"lastError,omitempty"`
}

// Workflow is the admin screen state of one session.
// It holds a transient copy of the posts and never writes without a store round trip.
type Workflow struct {
	actor    string
	posts    Posts
	recorder Recorder
	logger   logSDK.Logger
	now      func() time.Time

	mu           sync.Mutex
	state        State
	draft        model.Draft
	editingID    string
	deleteTarget string
	submitting   bool
	deleting     bool
	list         []*model.Post
	fetchedAt    time.Time
	lastErr      string
}

// New creates an idle workflow acting as actor.
// recorder may be nil.
func New(actor string, posts Posts, recorder Recorder, logger logSDK.Logger) *Workflow {
	if logger == nil {
		logger = log.Logger.Named("workflow")
	}

	return &Workflow{
		actor:    actor,
		posts:    posts,
		recorder: recorder,
		logger:   logger.With(zap.String("actor", actor)),
		now:      gutils.Clock.GetUTCNow,
	}
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		State:        w.state.String(),
		EditingID:    w.editingID,
		DeleteTarget: w.deleteTarget,
		Pending:      w.submitting || w.deleting,
		Posts:        append([]*model.Post{}, w.list...),
		FetchedAt:    w.fetchedAt,
		LastError:    w.lastErr,
	}
	if w.state != StateIdle {
		draft := w.draft
		snap.Draft = &draft
	}

	return snap
}

// State returns the form state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Refresh re-reads the post list. On failure the previous list is kept.
func (w *Workflow) Refresh(ctx context.Context) error {
	posts, err := w.posts.ListAll(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		return w.failLocked("refresh", err)
	}

	w.list = posts
	w.fetchedAt = w.now()
	w.lastErr = ""
	return nil
}

// NewPost opens the form on an empty draft.
func (w *Workflow) NewPost() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return ErrBusy
	}
	if w.state != StateIdle {
		return errors.Wrapf(ErrInvalidTransition, "new post while %s", w.state)
	}

	w.state = StateAuthoring
	w.draft = model.NewDraft()
	w.editingID = ""
	w.lastErr = ""
	return nil
}

// EditPost opens the form on a copy of post id.
// The cached list is used when it has the post, otherwise the store is read.
func (w *Workflow) EditPost(ctx context.Context, id string) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.state != StateIdle {
		state := w.state
		w.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "edit post while %s", state)
	}
	var post *model.Post
	for _, p := range w.list {
		if p.ID == id {
			post = p
			break
		}
	}
	w.mu.Unlock()

	if post == nil {
		var err error
		if post, err = w.posts.GetByID(ctx, id); err != nil {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.forgetIfMissingLocked(id, err)
			return w.failLocked("load post for edit", err)
		}
	}

	var draft model.Draft
	if err := copier.Copy(&draft, &post.Draft); err != nil {
		return errors.Wrap(err, "copy post to draft")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle {
		return errors.Wrapf(ErrInvalidTransition, "edit post while %s", w.state)
	}

	w.state = StateEditing
	w.draft = draft
	w.editingID = id
	w.lastErr = ""
	return nil
}

// UpdateDraft replaces the form fields. CreatedAt is owned by the workflow
// and is not taken from draft.
func (w *Workflow) UpdateDraft(draft model.Draft) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return ErrBusy
	}
	if w.state == StateIdle {
		return errors.Wrap(ErrInvalidTransition, "update draft while idle")
	}

	draft.CreatedAt = w.draft.CreatedAt
	w.draft = draft
	return nil
}

// Cancel discards the draft without touching the store.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return ErrBusy
	}
	if w.state == StateIdle {
		return errors.Wrap(ErrInvalidTransition, "cancel while idle")
	}

	w.resetFormLocked()
	return nil
}

// Submit validates the draft and creates or updates the post.
// A new post gets createdAt now; an edited post keeps its original createdAt.
// On success the form closes and the list is re-read; a failed re-read is
// recorded in the snapshot but does not fail the submit.
// On failure the form stays open and the error is returned.
// It returns the id of the stored post.
func (w *Workflow) Submit(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return "", ErrBusy
	}
	if w.state == StateIdle {
		w.mu.Unlock()
		return "", errors.Wrap(ErrInvalidTransition, "submit while idle")
	}

	draft, err := service.ValidateDraft(w.draft)
	if err != nil {
		defer w.mu.Unlock()
		return "", w.failLocked("validate draft", err)
	}

	state, id := w.state, w.editingID
	if state == StateAuthoring {
		draft.CreatedAt = model.FormatTime(w.now())
	}
	w.submitting = true
	w.mu.Unlock()

	action := "update_post"
	if state == StateAuthoring {
		action = "create_post"
		id, err = w.posts.Create(ctx, draft)
	} else {
		err = w.posts.Update(ctx, id, draft)
	}

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		defer w.mu.Unlock()
		if w.forgetIfMissingLocked(id, err) {
			// the edited post is gone, there is nothing left to save into
			w.resetFormLocked()
		}
		return "", w.failLocked(action, err)
	}
	w.resetFormLocked()
	w.mu.Unlock()

	w.logger.Info("post saved", zap.String("action", action), zap.String("id", id))
	w.audit(ctx, action, id)
	if err = w.Refresh(ctx); err != nil {
		w.logger.Warn("refresh after submit", zap.Error(err))
	}

	return id, nil
}

// RequestDelete opens the delete confirmation for id.
// Requesting the already pending target again is a no-op.
func (w *Workflow) RequestDelete(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id == "" {
		return errors.WithStack(model.ErrPostNotFound)
	}
	if w.deleteTarget != "" && w.deleteTarget != id {
		return errors.Wrapf(ErrDeletePending, "pending %q", w.deleteTarget)
	}

	w.deleteTarget = id
	return nil
}

// ConfirmDelete deletes the pending target and re-reads the list.
// On failure the confirmation stays open.
func (w *Workflow) ConfirmDelete(ctx context.Context) error {
	w.mu.Lock()
	if w.deleting {
		w.mu.Unlock()
		return ErrBusy
	}
	id := w.deleteTarget
	if id == "" {
		w.mu.Unlock()
		return errors.Wrap(ErrInvalidTransition, "no delete awaiting confirmation")
	}
	w.deleting = true
	w.mu.Unlock()

	err := w.posts.DeleteByID(ctx, id)

	w.mu.Lock()
	w.deleting = false
	if err != nil {
		defer w.mu.Unlock()
		return w.failLocked("delete_post", err)
	}
	w.deleteTarget = ""
	w.mu.Unlock()

	w.logger.Info("post deleted", zap.String("id", id))
	w.audit(ctx, "delete_post", id)
	if err = w.Refresh(ctx); err != nil {
		w.logger.Warn("refresh after delete", zap.Error(err))
	}

	return nil
}

// CancelDelete closes the delete confirmation without touching the store.
func (w *Workflow) CancelDelete() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.deleting {
		return ErrBusy
	}
	if w.deleteTarget == "" {
		return errors.Wrap(ErrInvalidTransition, "no delete awaiting confirmation")
	}

	w.deleteTarget = ""
	return nil
}

func (w *Workflow) resetFormLocked() {
	w.state = StateIdle
	w.draft = model.Draft{}
	w.editingID = ""
	w.lastErr = ""
}

// forgetIfMissingLocked drops post id from the cached list when err says
// it no longer exists in the store. It reports whether it did.
func (w *Workflow) forgetIfMissingLocked(id string, err error) bool {
	if id == "" || !errors.Is(err, model.ErrPostNotFound) {
		return false
	}

	kept := w.list[:0:0]
	for _, p := range w.list {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	w.list = kept
	if w.deleteTarget == id {
		w.deleteTarget = ""
	}

	return true
}

// failLocked logs err at the workflow boundary and keeps its message for the snapshot.
func (w *Workflow) failLocked(op string, err error) error {
	w.lastErr = err.Error()
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrPostNotFound):
		w.logger.Warn("workflow operation rejected", zap.String("op", op), zap.Error(err))
	default:
		w.logger.Error("workflow operation failed", zap.String("op", op), zap.Error(err))
	}

	return err
}

func (w *Workflow) audit(ctx context.Context, action, target string) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.PushAudit(ctx, w.actor, action, target); err != nil {
		w.logger.Warn("push audit", zap.String("action", action), zap.Error(err))
	}
}
