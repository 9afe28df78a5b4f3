// Package controller serves the admin API: sign-in, the content workflow,
// subscriber management and cover uploads.
package controller

import (
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/envo-blog/internal/web/respond"
	"github.com/Laisky/envo-blog/library/auth"
)

const (
	// SessionCookie carries the session token of a browser.
	SessionCookie = "envo_session"

	ctxKeySession = "envo.session"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// tokenFromRequest reads the session token from the Bearer header, then the cookie.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	token, _ := c.Cookie(SessionCookie)
	return token
}

// CurrentSession returns the session RequireSession stored on c.
func CurrentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(ctxKeySession)
	if !ok {
		return nil
	}

	sess, _ := v.(*auth.Session)
	return sess
}

// RequireSession aborts with 401 unless the request carries a live session.
func (ctl *Admin) RequireSession(c *gin.Context) {
	sess, err := ctl.sessions.Verify(c.Request.Context(), tokenFromRequest(c))
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			respond.Message(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		respond.Error(c, err, respond.Load, "session")
		return
	}

	c.Set(ctxKeySession, sess)
	c.Next()
}

func (ctl *Admin) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", ctl.secureCookie, true)
}

// Login signs in with email and password and sets the session cookie.
// The token is also returned for Bearer clients.
func (ctl *Admin) Login(c *gin.Context) {
	if ctl.loginLimit != nil && !ctl.loginLimit.Allow(c.ClientIP()) {
		respond.Message(c, http.StatusTooManyRequests, "too many login attempts, please try again later")
		return
	}

	req := new(loginRequest)
	if err := c.ShouldBind(req); err != nil {
		respond.Message(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	sess, err := ctl.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		respond.Error(c, err, respond.Load, "session")
		return
	}

	respond.Logger(c, "auth").Info("admin signed in", zap.String("email", sess.Email))
	ctl.setSessionCookie(c, sess.Token, int(ctl.sessions.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"session": sess, "token": sess.Token})
}

// Logout revokes the session, drops its workflow and clears the cookie.
// Logging out without a session succeeds.
func (ctl *Admin) Logout(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	sess, err := ctl.sessions.Verify(ctx, tokenFromRequest(c))
	switch {
	case err == nil:
		if err = ctl.sessions.SignOut(ctx, sess); err != nil {
			respond.Error(c, err, respond.Save, "session")
			return
		}
		ctl.workflows.Drop(sess.ID)
		respond.Logger(c, "auth").Info("admin signed out", zap.String("email", sess.Email))
	case !errors.Is(err, auth.ErrNoSession):
		respond.Error(c, err, respond.Load, "session")
		return
	}

	ctl.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// Session returns the current session.
func (ctl *Admin) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": CurrentSession(c)})
}
