// Package controller serves the public blog API.
package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/envo-blog/internal/web/blog/dto"
	"github.com/Laisky/envo-blog/internal/web/blog/service"
	"github.com/Laisky/envo-blog/internal/web/respond"
	"github.com/Laisky/envo-blog/library/throttle"
)

const (
	// RequestTimeout bounds the store calls of one request.
	RequestTimeout = 10 * time.Second

	defaultListCount  = 5
	subscribedMessage = "Thank you for subscribing!"
)

// Blog serves the public read views and the subscribe form.
type Blog struct {
	posts     *service.PostService
	subs      *service.SubscriberService
	views     *service.ViewService
	subscribe *throttle.KeyedThrottle
}

// New creates the public controller.
// subscribeLimit limits signups per client ip, nil disables the limit.
func New(posts *service.PostService,
	subs *service.SubscriberService,
	views *service.ViewService,
	subscribeLimit *throttle.KeyedThrottle,
) *Blog {
	return &Blog{
		posts:     posts,
		subs:      subs,
		views:     views,
		subscribe: subscribeLimit,
	}
}

// RegisterRoutes mounts the public API on r, which is the /api group.
func (ctl *Blog) RegisterRoutes(r gin.IRouter) {
	r.GET("/posts", ctl.Home)
	r.GET("/posts/latest", ctl.Latest)
	r.GET("/posts/popular", ctl.Popular)
	r.GET("/posts/:id", ctl.Post)
	r.GET("/categories", ctl.Categories)
	r.GET("/categories/:category", ctl.Category)
	r.POST("/subscriptions", ctl.Subscribe)
}

func withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), RequestTimeout)
}

// parseCount reads the count query parameter, defaulting to defaultListCount.
func parseCount(c *gin.Context) (int, bool) {
	raw := c.Query("count")
	if raw == "" {
		return defaultListCount, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		respond.Message(c, http.StatusBadRequest, "count must be an integer")
		return 0, false
	}

	return n, true
}

// Home returns every post plus the latest sidebar.
func (ctl *Blog) Home(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := ctl.views.Home(ctx)
	if err != nil {
		respond.Error(c, err, respond.Load, "posts")
		return
	}

	c.JSON(http.StatusOK, view)
}

// Latest returns the newest posts.
func (ctl *Blog) Latest(c *gin.Context) {
	count, ok := parseCount(c)
	if !ok {
		return
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	posts, err := ctl.posts.ListLatest(ctx, count)
	if err != nil {
		respond.Error(c, err, respond.Load, "latest posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Popular returns the popular posts.
func (ctl *Blog) Popular(c *gin.Context) {
	count, ok := parseCount(c)
	if !ok {
		return
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	posts, err := ctl.posts.ListPopular(ctx, count)
	if err != nil {
		respond.Error(c, err, respond.Load, "popular posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Post returns one post page.
func (ctl *Blog) Post(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := ctl.views.Post(ctx, c.Param("id"))
	if err != nil {
		respond.Error(c, err, respond.Load, "post")
		return
	}

	c.JSON(http.StatusOK, view)
}

// Categories returns the category labels.
func (ctl *Blog) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": ctl.views.Categories()})
}

// Category returns one category page. The label is matched exactly as decoded from the path.
func (ctl *Blog) Category(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := ctl.views.Category(ctx, c.Param("category"))
	if err != nil {
		respond.Error(c, err, respond.Load, "posts")
		return
	}

	c.JSON(http.StatusOK, view)
}

// Subscribe adds a newsletter subscriber.
func (ctl *Blog) Subscribe(c *gin.Context) {
	if ctl.subscribe != nil && !ctl.subscribe.Allow(c.ClientIP()) {
		respond.Message(c, http.StatusTooManyRequests, "too many requests, please try again later")
		return
	}

	req := new(dto.SubscribeRequest)
	if err := c.ShouldBind(req); err != nil {
		respond.Message(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := ctl.subs.Add(ctx, req.Email); err != nil {
		respond.Error(c, err, respond.Save, "subscription")
		return
	}

	c.JSON(http.StatusCreated, dto.SubscribeResponse{Message: subscribedMessage})
}
