// cmd/vdiff/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vdiff/internal/config"
	"vdiff/internal/diff"
	"vdiff/internal/logging"
	"vdiff/internal/normalize"
	"vdiff/internal/server"
	"vdiff/internal/watch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

var (
	contextLines int
	maxLines     int
	normalizeDoc bool
	stripPaths   []string
	noColor      bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "vdiff",
	Short: "vdiff shows expandable line diffs between document versions",
	Long: `vdiff compares two versions of a document line by line and prints the
changes as hunks with a few lines of context. Hunks can be expanded to reveal
more of the surrounding document, as in a review UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		if !verbose {
			return nil
		}
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	var (
		stat bool
		full bool
	)

	var diffCmd = &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show the changes between two files",
		Long: `Show the changes between two files. A missing OLD file shows NEW as
created, a missing NEW file shows OLD as deleted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := loadSection(args[0], args[1])
			if err != nil {
				return err
			}

			if full {
				if err := section.ExpandAll(); err != nil {
					return fmt.Errorf("expanding hunks: %w", err)
				}
			}

			if stat {
				printStat(section)
				return nil
			}
			printSection(args[0], args[1], section)
			return nil
		},
	}
	diffCmd.Flags().BoolVar(&stat, "stat", false, "Print only a summary of added and removed lines")
	diffCmd.Flags().BoolVar(&full, "full", false, "Expand every hunk to show the whole document")
	addDiffFlags(diffCmd)

	var debounce time.Duration
	var watchCmd = &cobra.Command{
		Use:   "watch OLD NEW",
		Short: "Re-print the diff whenever either file changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := watch.Options{Debounce: debounce, Logger: logger}
			if normalizeDoc {
				nopts, err := normalizeOptions()
				if err != nil {
					return err
				}
				opts.Normalize = &nopts
			}

			w, err := watch.New(args[0], args[1], newEngine(), opts)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			yellow := color.New(color.FgYellow).SprintFunc()
			err = w.Run(ctx, func(section *diff.FileDiffSection) {
				fmt.Println(yellow(fmt.Sprintf("=== %s  %s", time.Now().Format("15:04:05"), section.Status)))
				printSection(args[0], args[1], section)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	watchCmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "Wait for writes to settle before re-diffing")
	addDiffFlags(watchCmd)

	var configPath string
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the diff session HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.Path()
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			serverLogger, err := logging.NewLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer serverLogger.Sync()

			srv, err := server.New(cfg, serverLogger)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "Config file (default config/config.$VDIFF_ENV.json)")

	rootCmd.AddCommand(diffCmd, watchCmd, serveCmd, newRemoteCmd())
}

func addDiffFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&contextLines, "context", "U", diff.DefaultContextLines, "Lines of context around each change")
	cmd.Flags().IntVar(&maxLines, "max-lines", diff.DefaultMaxLines, "Refuse documents longer than this (0 for no limit)")
	cmd.Flags().BoolVar(&normalizeDoc, "normalize", false, "Canonicalize YAML and drop server-managed fields first")
	cmd.Flags().StringSliceVar(&stripPaths, "strip", nil, "Extra dotted paths to drop when normalizing")
}

func newEngine() *diff.Engine {
	return diff.NewEngine(contextLines, diff.WithMaxLines(maxLines), diff.WithLogger(logger))
}

func normalizeOptions() (normalize.Options, error) {
	var opts normalize.Options
	for _, s := range stripPaths {
		path, err := normalize.ParsePath(s)
		if err != nil {
			return opts, fmt.Errorf("invalid --strip path %q: %w", s, err)
		}
		opts.StripPaths = append(opts.StripPaths, path)
	}
	return opts, nil
}

// readDocument returns nil when the file does not exist.
func readDocument(path string, nopts *normalize.Options) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	if nopts == nil {
		return data, nil
	}

	out, err := normalize.Normalize(data, *nopts)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", path, err)
	}
	return out, nil
}

func loadSection(oldPath, newPath string) (*diff.FileDiffSection, error) {
	var nopts *normalize.Options
	if normalizeDoc {
		opts, err := normalizeOptions()
		if err != nil {
			return nil, err
		}
		nopts = &opts
	}

	oldDoc, err := readDocument(oldPath, nopts)
	if err != nil {
		return nil, err
	}
	newDoc, err := readDocument(newPath, nopts)
	if err != nil {
		return nil, err
	}
	if oldDoc == nil && newDoc == nil {
		return nil, fmt.Errorf("neither %s nor %s exists", oldPath, newPath)
	}

	return newEngine().Section(filepath.Base(newPath), oldDoc, newDoc)
}

func printSection(oldPath, newPath string, section *diff.FileDiffSection) {
	hunks := section.Snapshot()
	if len(hunks) == 0 {
		return
	}

	bold := color.New(color.Bold)
	oldName, newName := "a/"+oldPath, "b/"+newPath
	switch section.Status {
	case diff.StatusCreated:
		oldName = "/dev/null"
	case diff.StatusDeleted:
		newName = "/dev/null"
	}
	bold.Printf("--- %s\n", oldName)
	bold.Printf("+++ %s\n", newName)
	printColoredDiff(diff.FormatHunks(hunks))
}

func printStat(section *diff.FileDiffSection) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	stats := section.Stats()
	fmt.Printf("%s | %s %s %s\n", section.Name, section.Status,
		green(fmt.Sprintf("+%d", stats.Added)), red(fmt.Sprintf("-%d", stats.Removed)))
}

func printColoredDiff(text string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
