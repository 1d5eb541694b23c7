package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"volume-index/internal/cache"
	"volume-index/internal/explorer"
	"volume-index/internal/indexer"
	"volume-index/internal/startup"
	"volume-index/internal/volumes"
)

var (
	headerColor = color.New(color.Bold)
	dirColor    = color.New(color.FgBlue, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
)

// loadStore reads the snapshot into a fresh store
func loadStore(path string) (*cache.Store, error) {
	if !cache.SnapshotExists(path) {
		return nil, fmt.Errorf("no snapshot at %s", path)
	}
	store := cache.NewStore()
	if err := store.Load(path); err != nil {
		return nil, err
	}
	return store, nil
}

func newInspectCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show per-volume name and entry counts of the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			store, err := loadStore(opts.snapshotPath)
			if err != nil {
				return err
			}
			if output != outputText {
				return writeStructured(cmd.OutOrStdout(), output, store.VolumeStats())
			}
			return printStats(cmd.OutOrStdout(), opts.snapshotPath, store.VolumeStats())
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}

func printStats(out io.Writer, path string, stats []cache.VolumeStats) error {
	fmt.Fprintf(out, "Snapshot: %s\n\n", path)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, headerColor.Sprint("VOLUME")+"\t"+headerColor.Sprint("NAMES")+"\t"+headerColor.Sprint("ENTRIES"))

	var names, entries int
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Volume, s.Names, s.Entries)
		names += s.Names
		entries += s.Entries
	}
	fmt.Fprintf(tw, "%s\t%d\t%d\n", headerColor.Sprint("TOTAL"), names, entries)

	return tw.Flush()
}

func newSearchCmd(opts *options) *cobra.Command {
	var volume string
	var output string

	cmd := &cobra.Command{
		Use:   "search NAME",
		Short: "Look up an exact file or directory name in the snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			store, err := loadStore(opts.snapshotPath)
			if err != nil {
				return err
			}

			name := args[0]
			matches := map[string][]cache.CachedEntry{}
			if volume != "" {
				if found := store.Lookup(volume, name); len(found) > 0 {
					matches[volume] = found
				}
			} else {
				matches = store.Search(name)
			}

			out := cmd.OutOrStdout()
			if output != outputText {
				return writeStructured(out, output, matches)
			}

			if len(matches) == 0 {
				warnColor.Fprintf(out, "No entries named %q\n", name)
				return nil
			}

			volumeIDs := make([]string, 0, len(matches))
			for id := range matches {
				volumeIDs = append(volumeIDs, id)
			}
			sort.Strings(volumeIDs)

			for _, id := range volumeIDs {
				headerColor.Fprintf(out, "%s\n", id)
				entries := matches[id]
				sort.Slice(entries, func(i, j int) bool { return entries[i].FilePath < entries[j].FilePath })
				for _, e := range entries {
					printEntry(out, e.FileType, e.FilePath)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&volume, "volume", "", "limit the search to one volume (mount point)")
	addOutputFlag(cmd, &output)
	return cmd
}

func printEntry(out io.Writer, kind cache.FileType, path string) {
	path = truncateMiddle(path, terminalWidth()-4)
	if kind == cache.Directory {
		fmt.Fprintf(out, "  %s\n", dirColor.Sprint(path+string(filepath.Separator)))
		return
	}
	fmt.Fprintf(out, "  %s\n", path)
}

func newLsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls PATH",
		Short: "List the immediate children of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", args[0])
			}

			out := cmd.OutOrStdout()
			for _, child := range explorer.OpenDirectory(args[0]) {
				if child.Kind == cache.Directory {
					fmt.Fprintf(out, "%s\n", dirColor.Sprint(child.Name+string(filepath.Separator)))
				} else {
					fmt.Fprintf(out, "%s\n", child.Name)
				}
			}
			return nil
		},
	}
}

func newBuildCmd(opts *options) *cobra.Command {
	var roots []string
	var workers int
	var skipHidden bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Walk volumes and write a fresh snapshot",
		Long: "Walk every mounted volume, or only the --root directories, and replace the " +
			"snapshot with the result. The running server picks it up on its next start.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var enumerator volumes.Enumerator = volumes.NewSystemEnumerator()
			if len(roots) > 0 {
				abs := make([]string, 0, len(roots))
				for _, r := range roots {
					p, err := filepath.Abs(r)
					if err != nil {
						return err
					}
					abs = append(abs, p)
				}
				enumerator = volumes.RootsEnumerator(abs...)
			}

			vols, err := enumerator.Volumes(ctx)
			if err != nil {
				return fmt.Errorf("enumerate volumes: %w", err)
			}

			config := indexer.DefaultParallelWalkerConfig(workers)
			config.SkipHidden = skipHidden

			out := cmd.OutOrStdout()
			store := cache.NewStore()
			for _, v := range vols {
				bucket, report := indexer.IndexVolume(ctx, v.MountPoint, config)
				if report.Canceled {
					return fmt.Errorf("build of %s interrupted, snapshot left unchanged", v.MountPoint)
				}
				store.Put(v.MountPoint, bucket)

				line := fmt.Sprintf("%s: %d files, %d directories in %v", v.MountPoint, report.Files, report.Directories, report.Duration.Round(time.Millisecond))
				if len(report.Skipped) > 0 {
					warnColor.Fprintf(out, "%s (%d unreadable)\n", line, len(report.Skipped))
				} else {
					okColor.Fprintln(out, line)
				}
			}

			if err := store.Save(opts.snapshotPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s (%d volumes)\n", opts.snapshotPath, len(vols))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roots, "root", nil, "directory to index as a volume (repeatable)")
	cmd.Flags().IntVar(&workers, "workers", 0, "walk workers (0 = auto)")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", false, "leave dot-files and dot-directories out")
	return cmd
}

func newResetCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the snapshot so the next start rebuilds the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !cache.SnapshotExists(opts.snapshotPath) {
				fmt.Fprintf(out, "No snapshot at %s\n", opts.snapshotPath)
				return nil
			}

			if !yes {
				if !opts.isTerminal() {
					return errors.New("refusing to delete without --yes when stdin is not a terminal")
				}
				ok, err := confirm(out, opts.stdin, fmt.Sprintf("Delete %s?", opts.snapshotPath))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if err := cache.RemoveSnapshot(opts.snapshotPath); err != nil {
				return err
			}
			okColor.Fprintf(out, "Deleted %s\n", opts.snapshotPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question and defaults to no
func confirm(out io.Writer, in io.Reader, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables read by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), startup.Usage())
			return err
		},
	}
}
