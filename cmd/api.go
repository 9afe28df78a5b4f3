package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/envo-blog/internal/web"
	"github.com/Laisky/envo-blog/internal/web/graph"
	admin "github.com/Laisky/envo-blog/internal/web/admin/controller"
	blog "github.com/Laisky/envo-blog/internal/web/blog/controller"
	"github.com/Laisky/envo-blog/library/log"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `run the blog http api and serve the frontend build`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := runAPI(ctx); err != nil {
			log.Logger.Panic("run api", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

// runAPI serves the http api until ctx is done.
func runAPI(ctx context.Context) error {
	d, err := setupDeps(ctx)
	if err != nil {
		return errors.Wrap(err, "setup deps")
	}
	defer d.Close(context.Background())

	if err = d.setupAdmin(ctx); err != nil {
		return errors.Wrap(err, "setup admin")
	}

	adminOpts := []admin.Option{
		admin.WithLoginLimit(d.loginLimit),
		admin.WithSecureCookie(gconfig.Shared.GetBool("settings.web.secure_cookie")),
	}
	if d.covers != nil {
		adminOpts = append(adminOpts, admin.WithCovers(d.covers))
	}
	if d.recorder != nil {
		adminOpts = append(adminOpts, admin.WithRecorder(d.recorder))
	}

	blogCtl := blog.New(d.posts, d.subs, d.views, d.subscribeLimit)
	schema, err := blogCtl.NewGraphQL()
	if err != nil {
		return errors.Wrap(err, "new graphql schema")
	}

	engine, err := web.NewEngine(web.Options{
		Logger:         log.Logger.Named("web"),
		LogLevel:       gconfig.Shared.GetString("log-level"),
		AllowedOrigins: gconfig.Shared.GetStringSlice("settings.web.allowed_origins"),
		FrontendDir:    gconfig.Shared.GetString("settings.web.frontend_dir"),
		EnableMetric:   gconfig.Shared.GetBool("settings.web.enable_metric"),
		GraphQL:        graph.NewHandler(log.Logger.Named("graphql"), schema),
	},
		blogCtl,
		admin.New(d.sessions, d.workflows, d.subs, adminOpts...),
	)
	if err != nil {
		return errors.Wrap(err, "new engine")
	}

	return web.RunServer(ctx, gconfig.Shared.GetString("listen"), engine)
}
