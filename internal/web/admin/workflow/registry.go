package workflow

import (
	"sync"
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/envo-blog/library/log"
)

type registryEntry struct {
	wf       *Workflow
	lastUsed time.Time
}

// Registry owns one workflow per admin session.
type Registry struct {
	posts    Posts
	recorder Recorder
	logger   logSDK.Logger
	idleTTL  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates an empty registry. Workflows unused for idleTTL are
// dropped; a non-positive idleTTL keeps them until Drop.
func NewRegistry(posts Posts, recorder Recorder, logger logSDK.Logger, idleTTL time.Duration) *Registry {
	if logger == nil {
		logger = log.Logger.Named("workflow_registry")
	}

	return &Registry{
		posts:    posts,
		recorder: recorder,
		logger:   logger,
		idleTTL:  idleTTL,
		now:      gutils.Clock.GetUTCNow,
		entries:  map[string]*registryEntry{},
	}
}

// Get returns the workflow of sessionID, creating an idle one for actor if needed.
func (r *Registry) Get(sessionID, actor string) *Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	e, ok := r.entries[sessionID]
	if !ok {
		e = &registryEntry{wf: New(actor, r.posts, r.recorder, r.logger)}
		r.entries[sessionID] = e
		r.logger.Debug("new workflow", zap.String("actor", actor))
	}
	e.lastUsed = now

	return e.wf
}

// Drop forgets the workflow of sessionID, discarding any open draft.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Len returns the number of live workflows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) evictLocked(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}

	for id, e := range r.entries {
		if now.Sub(e.lastUsed) >= r.idleTTL {
			delete(r.entries, id)
		}
	}
}
