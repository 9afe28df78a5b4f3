package cmd

import (
	"context"
	"os"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Laisky/envo-blog/cmd/tui"
	"github.com/Laisky/envo-blog/library/auth"
	"github.com/Laisky/envo-blog/library/log"
)

var adminCMD = &cobra.Command{
	Use:   "admin",
	Short: "terminal admin console",
	Long: `Sign in and manage the blog from the terminal.

The console drives the same workflow as the admin http api:
  • author, edit and delete posts
  • list, delete and export subscribers

Keyboard shortcuts:
  n/e/d       New / edit / delete the selected post
  s           Subscribers
  tab         Next form field
  ctrl+s      Publish the open form
  esc         Cancel / back
  q           Quit`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAdminConsole(context.Background()); err != nil {
			log.Logger.Panic("run admin console", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(adminCMD)
	adminCMD.Flags().String("export-dir", ".", "directory subscriber exports are written to")
}

// runAdminConsole starts the interactive console and returns any start/run error.
func runAdminConsole(ctx context.Context) error {
	d, err := setupDeps(ctx)
	if err != nil {
		return errors.Wrap(err, "setup deps")
	}
	defer d.Close(context.Background())

	if err = d.setupAdmin(ctx); err != nil {
		return errors.Wrap(err, "setup admin")
	}

	client := auth.NewClient(d.sessions)
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			log.Logger.Warn("close auth client", zap.Error(err))
		}
	}()

	exportDir := gconfig.Shared.GetString("export-dir")
	if err = os.MkdirAll(exportDir, 0o755); err != nil {
		return errors.Wrapf(err, "create export dir %q", exportDir)
	}

	p := tea.NewProgram(
		tui.NewModel(tui.Deps{
			Auth:        client,
			Workflows:   d.workflows,
			Subscribers: d.subs,
			ExportDir:   exportDir,
		}),
		tea.WithAltScreen(),
	)

	unsubscribe := client.Subscribe(func(sess *auth.Session) {
		p.Send(tui.SessionChanged{Session: sess})
	})
	defer unsubscribe()

	_, err = p.Run()
	return errors.WithStack(err)
}
