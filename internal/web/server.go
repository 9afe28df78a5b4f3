// Package web gin server
package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/envo-blog/internal/web/graph"
	"github.com/Laisky/envo-blog/internal/web/respond"
	"github.com/Laisky/envo-blog/library/log"
)

// pageRoutes are the frontend routes served with the index page.
var pageRoutes = []string{
	"/",
	"/blog/:id",
	"/categories/:category",
	"/admin/login",
	"/admin/dashboard",
}

// Router mounts a group of API routes.
type Router interface {
	RegisterRoutes(r gin.IRouter)
}

// Options configures the engine.
type Options struct {
	Logger logSDK.Logger
	// LogLevel is the level of the request logger, e.g. "info".
	LogLevel string
	// AllowedOrigins are CORS host patterns: "envo.blog", "*.envo.blog" or "*".
	AllowedOrigins []string
	// FrontendDir overrides the lookup of the frontend build.
	FrontendDir string
	// EnableMetric serves the gin-middlewares metric endpoints.
	EnableMetric bool
	// GraphQL is served on /query when set.
	GraphQL http.Handler
}

// NewEngine builds the gin engine: middlewares, health check, the API
// routers under /api, and the frontend pages.
func NewEngine(opts Options, routers ...Router) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Logger.Named("web")
	}

	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}

	server := gin.New()
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(opts.LogLevel),
			gmw.WithLogger(logger.Named("gin")),
		),
		newCORSMiddleware(opts.AllowedOrigins),
	)

	if opts.EnableMetric {
		if err := gmw.EnableMetric(server); err != nil {
			return nil, errors.Wrap(err, "enable metric server")
		}
	}

	server.Any("/health", newStatusHandler())

	if opts.GraphQL != nil {
		graph.Mount(server, opts.GraphQL)
	}

	api := server.Group("/api")
	for _, r := range routers {
		r.RegisterRoutes(api)
	}

	spa := newFrontendSPAHandler(logger, opts.FrontendDir)
	if spa != nil {
		for _, route := range pageRoutes {
			server.GET(route, gmw.FromStd(spa.serveIndexOK))
			server.HEAD(route, gmw.FromStd(spa.serveIndexOK))
		}
	}

	server.NoRoute(func(c *gin.Context) {
		if spa == nil || c.Request.URL.Path == "/api" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			respond.Message(c, http.StatusNotFound, "resource not found")
			return
		}

		spa.ServeHTTP(c.Writer, c.Request)
	})

	return server, nil
}

// RunServer serves engine on addr until ctx is done, then shuts down gracefully.
func RunServer(ctx context.Context, addr string, engine http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Info("listening on http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}

	log.Logger.Info("http server stopped")
	return nil
}

// newStatusHandler answers liveness probes.
func newStatusHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Allow", "GET, HEAD, OPTIONS")
		switch ctx.Request.Method {
		case http.MethodGet:
			ctx.String(http.StatusOK, "ok")
		default:
			ctx.Status(http.StatusOK)
		}
	}
}

// originAllowed matches the origin's host against the patterns.
func originAllowed(origin string, patterns []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
		case p == "*":
			return true
		case strings.HasPrefix(p, "*."):
			if strings.HasSuffix(host, p[1:]) {
				return true
			}
		case host == p:
			return true
		}
	}

	return false
}

func newCORSMiddleware(patterns []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := strings.TrimSpace(ctx.Request.Header.Get("Origin"))
		if origin != "" && originAllowed(origin, patterns) {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
			ctx.Header("Access-Control-Max-Age", "86400")
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		} else if origin != "" && ctx.Request.Method == http.MethodOptions {
			// preflight from a disallowed origin
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}
