package controller

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/envo-blog/internal/web/admin/workflow"
	"github.com/Laisky/envo-blog/internal/web/blog/dao"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/internal/web/blog/service"
	"github.com/Laisky/envo-blog/internal/web/respond"
	"github.com/Laisky/envo-blog/library/auth"
	"github.com/Laisky/envo-blog/library/throttle"
)

// requestTimeout bounds the store calls of one request.
const requestTimeout = 10 * time.Second

// CoverUploader stores a cover image and returns its public URL.
type CoverUploader interface {
	Upload(ctx context.Context, fileName string, r io.Reader, size int64) (string, error)
}

// Sessions issues and checks admin sessions.
type Sessions interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	Verify(ctx context.Context, token string) (*auth.Session, error)
	SignOut(ctx context.Context, sess *auth.Session) error
	TTL() time.Duration
}

// Admin serves /api/auth and /api/admin.
type Admin struct {
	sessions     Sessions
	workflows    *workflow.Registry
	subs         *service.SubscriberService
	covers       CoverUploader
	recorder     workflow.Recorder
	loginLimit   *throttle.KeyedThrottle
	secureCookie bool
}

// Option configures Admin.
type Option func(*Admin)

// WithCovers enables cover uploads.
func WithCovers(covers CoverUploader) Option {
	return func(a *Admin) {
		a.covers = covers
	}
}

// WithRecorder records subscriber mutations in the audit trail.
func WithRecorder(recorder workflow.Recorder) Option {
	return func(a *Admin) {
		a.recorder = recorder
	}
}

// WithLoginLimit limits sign-in attempts per client ip.
func WithLoginLimit(limit *throttle.KeyedThrottle) Option {
	return func(a *Admin) {
		a.loginLimit = limit
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(a *Admin) {
		a.secureCookie = secure
	}
}

// New creates the admin controller.
func New(sessions Sessions,
	workflows *workflow.Registry,
	subs *service.SubscriberService,
	opts ...Option,
) *Admin {
	a := &Admin{
		sessions:  sessions,
		workflows: workflows,
		subs:      subs,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// RegisterRoutes mounts /auth and /admin on r, which is the /api group.
func (ctl *Admin) RegisterRoutes(r gin.IRouter) {
	authGrp := r.Group("/auth")
	authGrp.POST("/login", ctl.Login)
	authGrp.POST("/logout", ctl.Logout)
	authGrp.GET("/session", ctl.RequireSession, ctl.Session)

	adminGrp := r.Group("/admin", ctl.RequireSession)
	wf := adminGrp.Group("/workflow")
	wf.GET("", ctl.Workflow)
	wf.POST("/refresh", ctl.Refresh)
	wf.POST("/new", ctl.NewPost)
	wf.POST("/edit/:id", ctl.EditPost)
	wf.PUT("/draft", ctl.UpdateDraft)
	wf.POST("/cancel", ctl.Cancel)
	wf.POST("/submit", ctl.Submit)
	wf.POST("/delete/:id", ctl.RequestDelete)
	wf.POST("/delete/confirm", ctl.ConfirmDelete)
	wf.POST("/delete/cancel", ctl.CancelDelete)

	adminGrp.POST("/uploads/cover", ctl.UploadCover)
	adminGrp.GET("/subscriptions", ctl.ListSubscribers)
	adminGrp.DELETE("/subscriptions/:id", ctl.DeleteSubscriber)
	adminGrp.GET("/subscriptions/export", ctl.ExportSubscribers)
}

func withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// workflowOf returns the workflow of the request's session.
func (ctl *Admin) workflowOf(c *gin.Context) *workflow.Workflow {
	sess := CurrentSession(c)
	return ctl.workflows.Get(sess.ID, sess.Email)
}

func (ctl *Admin) snapshot(c *gin.Context, wf *workflow.Workflow) {
	c.JSON(http.StatusOK, gin.H{"workflow": wf.Snapshot()})
}

// Workflow returns the workflow state, reading the post list on first use.
func (ctl *Admin) Workflow(c *gin.Context) {
	wf := ctl.workflowOf(c)
	if wf.Snapshot().FetchedAt.IsZero() {
		ctx, cancel := withTimeout(c)
		defer cancel()
		if err := wf.Refresh(ctx); err != nil {
			respond.Error(c, err, respond.Load, "posts")
			return
		}
	}

	ctl.snapshot(c, wf)
}

// Refresh re-reads the post list.
func (ctl *Admin) Refresh(c *gin.Context) {
	wf := ctl.workflowOf(c)
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := wf.Refresh(ctx); err != nil {
		respond.Error(c, err, respond.Load, "posts")
		return
	}

	ctl.snapshot(c, wf)
}

// NewPost opens the form on an empty draft.
func (ctl *Admin) NewPost(c *gin.Context) {
	wf := ctl.workflowOf(c)
	if err := wf.NewPost(); err != nil {
		respond.Error(c, err, respond.Save, "post")
		return
	}

	ctl.snapshot(c, wf)
}

// EditPost opens the form on a copy of a post.
func (ctl *Admin) EditPost(c *gin.Context) {
	wf := ctl.workflowOf(c)
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := wf.EditPost(ctx, c.Param("id")); err != nil {
		respond.Error(c, err, respond.Load, "post")
		return
	}

	ctl.snapshot(c, wf)
}

// UpdateDraft replaces the form fields.
func (ctl *Admin) UpdateDraft(c *gin.Context) {
	draft := new(model.Draft)
	if err := c.ShouldBindJSON(draft); err != nil {
		respond.Message(c, http.StatusBadRequest, "invalid draft")
		return
	}

	wf := ctl.workflowOf(c)
	if err := wf.UpdateDraft(*draft); err != nil {
		respond.Error(c, err, respond.Save, "post")
		return
	}

	ctl.snapshot(c, wf)
}

// Cancel discards the draft.
func (ctl *Admin) Cancel(c *gin.Context) {
	wf := ctl.workflowOf(c)
	if err := wf.Cancel(); err != nil {
		respond.Error(c, err, respond.Save, "post")
		return
	}

	ctl.snapshot(c, wf)
}

// Submit creates or updates the post of the open form.
func (ctl *Admin) Submit(c *gin.Context) {
	wf := ctl.workflowOf(c)
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := wf.Submit(ctx)
	if err != nil {
		respond.Error(c, err, respond.Save, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "workflow": wf.Snapshot()})
}

// RequestDelete opens the delete confirmation.
func (ctl *Admin) RequestDelete(c *gin.Context) {
	wf := ctl.workflowOf(c)
	if err := wf.RequestDelete(c.Param("id")); err != nil {
		respond.Error(c, err, respond.Save, "post")
		return
	}

	ctl.snapshot(c, wf)
}

// ConfirmDelete deletes the pending post.
func (ctl *Admin) ConfirmDelete(c *gin.Context) {
	wf := ctl.workflowOf(c)
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := wf.ConfirmDelete(ctx); err != nil {
		respond.Error(c, err, respond.Save, "post")
		return
	}

	ctl.snapshot(c, wf)
}

// CancelDelete closes the delete confirmation.
func (ctl *Admin) CancelDelete(c *gin.Context) {
	wf := ctl.workflowOf(c)
	if err := wf.CancelDelete(); err != nil {
		respond.Error(c, err, respond.Save, "post")
		return
	}

	ctl.snapshot(c, wf)
}

// UploadCover stores the multipart "file" as a cover image.
func (ctl *Admin) UploadCover(c *gin.Context) {
	if ctl.covers == nil {
		respond.Message(c, http.StatusServiceUnavailable, "cover storage is not configured")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dao.MaxCoverSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		respond.Message(c, http.StatusBadRequest, "file is required")
		return
	}
	if fh.Size > dao.MaxCoverSize {
		respond.Message(c, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, errors.Wrap(err, "open upload"), respond.Save, "cover")
		return
	}
	defer f.Close()

	ctx, cancel := withTimeout(c)
	defer cancel()

	url, err := ctl.covers.Upload(ctx, fh.Filename, f, fh.Size)
	if err != nil {
		respond.Logger(c, "admin").Warn("upload cover", zap.Error(err))
		respond.Message(c, http.StatusBadRequest, "failed to upload cover")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ListSubscribers returns every subscriber, newest first.
func (ctl *Admin) ListSubscribers(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	subs, err := ctl.subs.ListAll(ctx)
	if err != nil {
		respond.Error(c, err, respond.Load, "subscribers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribers": subs})
}

// DeleteSubscriber removes one subscriber.
func (ctl *Admin) DeleteSubscriber(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id := c.Param("id")
	if err := ctl.subs.DeleteByID(ctx, id); err != nil {
		respond.Error(c, err, respond.Save, "subscriber")
		return
	}

	ctl.audit(c, "delete_subscriber", id)
	c.Status(http.StatusNoContent)
}

// ExportSubscribers downloads every subscriber as CSV.
func (ctl *Admin) ExportSubscribers(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	name, body, err := ctl.subs.Export(ctx)
	if err != nil {
		respond.Error(c, err, respond.Load, "subscribers")
		return
	}

	ctl.audit(c, "export_subscribers", name)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

func (ctl *Admin) audit(c *gin.Context, action, target string) {
	if ctl.recorder == nil {
		return
	}

	sess := CurrentSession(c)
	if err := ctl.recorder.PushAudit(c.Request.Context(), sess.Email, action, target); err != nil {
		respond.Logger(c, "admin").Warn("push audit", zap.String("action", action), zap.Error(err))
	}
}
