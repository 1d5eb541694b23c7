package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"volume-index/internal/logging"
	"volume-index/internal/startup"
)

const defaultSnapshotPath = "./disk_cache.json"

// options are the flags shared by every command
type options struct {
	snapshotPath string
	verbose      bool
	noColor      bool

	// stdin is read by interactive prompts; isTerminal decides whether to prompt
	stdin      io.Reader
	isTerminal func() bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(os.Stdin, stdinIsTerminal)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The snapshot path defaults to
// SNAPSHOT_PATH (or CONFIG_PATH's snapshot_path) like the server.
func newRootCmd(stdin io.Reader, isTerminal func() bool) *cobra.Command {
	opts := &options{stdin: stdin, isTerminal: isTerminal}

	root := &cobra.Command{
		Use:           "volumectl",
		Short:         "Inspect and maintain the volume index snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
			if opts.verbose {
				logging.SetLevel(logging.LevelInfo)
			} else {
				logging.SetLevel(logging.LevelWarn)
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.snapshotPath, "snapshot", "s", configuredSnapshotPath(), "snapshot file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log walk progress")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newInspectCmd(opts),
		newSearchCmd(opts),
		newLsCmd(opts),
		newBuildCmd(opts),
		newResetCmd(opts),
		newEnvCmd(),
	)

	return root
}

// configuredSnapshotPath reads the server configuration for the default
// snapshot location
func configuredSnapshotPath() string {
	cfg, err := startup.ReadConfig()
	if err != nil || cfg.SnapshotPath == "" {
		return defaultSnapshotPath
	}
	return cfg.SnapshotPath
}
