// Package respond maps domain errors to JSON HTTP responses.
package respond

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/envo-blog/internal/web/admin/workflow"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/auth"
	"github.com/Laisky/envo-blog/library/log"
)

// Verb says whether a failed call was reading or writing, for the 503 message.
type Verb string

const (
	// Load prefixes read failures.
	Load Verb = "load"
	// Save prefixes write failures.
	Save Verb = "save"
)

// Problem is the HTTP rendering of an error.
type Problem struct {
	Status  int
	Message string
	// Level is the log level the error is reported at.
	Level string
}

// Classify maps err to a status and a user facing message.
// what names the resource, e.g. "posts", and is only used for unexpected failures.
func Classify(err error, verb Verb, what string) Problem {
	var (
		validation *model.ValidationError
		authErr    *auth.Error
	)
	switch {
	case errors.As(err, &validation):
		return Problem{http.StatusBadRequest, validation.Message, "warn"}
	case errors.Is(err, model.ErrPostNotFound):
		return Problem{http.StatusNotFound, model.ErrPostNotFound.Error(), "warn"}
	case errors.Is(err, model.ErrDuplicateEmail):
		return Problem{http.StatusConflict, model.ErrDuplicateEmail.Error(), "debug"}
	case errors.As(err, &authErr):
		return Problem{http.StatusUnauthorized, auth.LoginMessage(authErr), "warn"}
	case errors.Is(err, auth.ErrNoSession):
		return Problem{http.StatusUnauthorized, "unauthorized", "warn"}
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrDeletePending):
		return Problem{http.StatusConflict, err.Error(), "warn"}
	case errors.Is(err, model.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return Problem{http.StatusServiceUnavailable, "failed to " + string(verb) + " " + what, "error"}
	default:
		return Problem{http.StatusInternalServerError, "failed to " + string(verb) + " " + what, "error"}
	}
}

// Error classifies err, logs it at the matching level and aborts with {"error": message}.
func Error(c *gin.Context, err error, verb Verb, what string) {
	p := Classify(err, verb, what)
	logger := Logger(c, "api").With(
		zap.Int("status", p.Status),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	switch p.Level {
	case "error":
		logger.Error("api error")
	case "debug":
		logger.Debug("api rejected")
	default:
		logger.Warn("api rejected")
	}

	c.AbortWithStatusJSON(p.Status, gin.H{"error": p.Message})
}

// Message aborts with status and {"error": message}, logging like Error.
func Message(c *gin.Context, status int, message string) {
	logger := Logger(c, "api")
	if status >= http.StatusInternalServerError {
		logger.Error("api error", zap.Int("status", status), zap.String("message", message))
	} else {
		logger.Warn("api rejected", zap.Int("status", status), zap.String("message", message))
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// Logger extracts a context-aware logger from the context.
// Falls back to the shared logger if the middleware did not install one.
func Logger(ctx context.Context, name string) logSDK.Logger {
	if logger := gmw.GetLogger(ctx); logger != nil {
		return logger.Named(name)
	}
	return log.Logger.Named(name)
}
