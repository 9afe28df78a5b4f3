package graph

import (
	"context"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/Laisky/envo-blog/library/log"
)

type clientIPKey struct{}

// ClientIP returns the client address recorded by the gin handler.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// NewHandler serves es over GET and POST.
func NewHandler(logger logSDK.Logger, es graphql.ExecutableSchema) *handler.Server {
	if logger == nil {
		logger = log.Logger.Named("graphql")
	}

	h := handler.New(es)
	h.AddTransport(transport.Options{})
	h.AddTransport(transport.GET{})
	h.AddTransport(transport.POST{})
	h.SetErrorPresenter(func(ctx context.Context, e error) *gqlerror.Error {
		err := graphql.DefaultErrorPresenter(ctx, e)

		// server side failures carry no status or a 5xx one
		status, _ := err.Extensions["status"].(int)
		if status == 0 || status >= http.StatusInternalServerError {
			logger.Error("graphql field failed", zap.String("path", err.Path.String()), zap.Error(e))
		} else {
			logger.Debug("graphql field rejected", zap.String("path", err.Path.String()), zap.Error(e))
		}

		return err
	})

	return h
}

// Mount serves h on /query and the playground on /ui.
func Mount(r gin.IRouter, h http.Handler) {
	serve := func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), clientIPKey{}, c.ClientIP())
		h.ServeHTTP(c.Writer, c.Request.WithContext(ctx))
	}

	r.Any("/query", serve)
	r.Any("/query/", serve)
	r.GET("/ui/", gmw.FromStd(playground.Handler("envo GraphQL playground", "/query")))
}
