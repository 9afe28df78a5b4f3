package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/envo-blog/library/log"
)

var exportCMD = &cobra.Command{
	Use:   "export-subscribers",
	Short: "export subscribers as csv",
	Long: `Write every subscriber to <out>/subscriptions-YYYY-MM-DD.csv,
newest first, with the header "Email,Subscription Date".`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		path, err := exportSubscribers(ctx, gconfig.Shared.GetString("out"))
		if err != nil {
			log.Logger.Panic("export subscribers", zap.Error(err))
		}

		log.Logger.Info("subscribers exported", zap.String("file", path))
	},
}

func init() {
	rootCMD.AddCommand(exportCMD)
	exportCMD.Flags().String("out", ".", "directory to write the csv into")
}

// exportSubscribers writes the csv export into dir and returns the file path.
func exportSubscribers(ctx context.Context, dir string) (string, error) {
	d, err := setupDeps(ctx)
	if err != nil {
		return "", errors.Wrap(err, "setup deps")
	}
	defer d.Close(context.Background())

	name, body, err := d.subs.Export(ctx)
	if err != nil {
		return "", errors.Wrap(err, "export subscribers")
	}

	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create dir %q", dir)
	}

	path := filepath.Join(dir, name)
	if err = os.WriteFile(path, body, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %q", path)
	}

	return path, nil
}
