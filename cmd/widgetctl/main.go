// Command widgetctl inspects and maintains the stats widget data layer:
// session flags, cached payloads, and the background refresh worker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sitewidgets/internal/config"
)

var (
	configPath  string
	jetpackFlag bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "widgetctl",
	Short: "Manage home screen stats widget data",
	Long: `widgetctl works with the data behind the home screen stats widgets.

It reads and writes the session flags the widgets gate on, caches per-site
stats payloads, resolves what a widget would show, and runs the background
refresh worker.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("jetpack") {
			cfg.Jetpack = jetpackFlag
		}
		logger, err = newLogger(cfg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "widgetctl.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&jetpackFlag, "jetpack", false, "act as the Jetpack app")

	rootCmd.AddCommand(resolveCmd, sessionCmd, cacheCmd, kindsCmd, brandingCmd, refreshCmd, enqueueCmd, workerCmd)
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
