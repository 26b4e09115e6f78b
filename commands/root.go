package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/presentation/formatter"
	"github.com/penwyp/go-herdbook/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Config file and overrides
	configPath string
	timezone   string
	dbPath     string
	baseURL    string

	// Output related
	outputFormat string

	// Paging
	pages   int
	loadAll bool

	// Filtering
	filters filterFlags

	rootCmd = &cobra.Command{
		Use:   "go-herdbook [flags]",
		Short: "Livestock activity and expense timeline",
		Long: `go-herdbook merges livestock journal entries and expense records into one
chronological timeline, grouped by day, with running statistics.

Records are read from a local SQLite database or from a herdbook HTTP API.

Examples:
  go-herdbook                                       # First page of the timeline
  go-herdbook --pages 3                             # Load three pages per source
  go-herdbook --all --output csv                    # Everything, as CSV
  go-herdbook --type expense --from 2024-06-01      # Expenses since June 1st
  go-herdbook --subject subj-bella --search vaccine # One animal, text search
  go-herdbook browse                                # Interactive browser`,
		SilenceUsage: true,
		RunE:         runTimeline,
	}

	timelineCmd = &cobra.Command{
		Use:          "timeline",
		Short:        "Print the grouped timeline",
		SilenceUsage: true,
		RunE:         runTimeline,
	}
)

const defaultLogFile = "~/.go-herdbook/logs/app.log"

func init() {
	// Config and data source
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (default ~/.go-herdbook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"SQLite database path (overrides source.db_path)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "",
		"Herdbook API base URL, switches the source to http")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "",
		"Timezone for day grouping (e.g., Europe/Dublin, UTC)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")

	rootCmd.AddCommand(timelineCmd)
	for _, cmd := range []*cobra.Command{rootCmd, timelineCmd} {
		addFilterFlags(cmd, &filters)
		addPagingFlags(cmd)
		cmd.Flags().StringVarP(&outputFormat, "output", "o", formatter.OutputTable,
			"Output format (table, json, csv, summary)")
	}
}

func addPagingFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&pages, "pages", "p", 1,
		"Number of pages to load per source")
	cmd.Flags().BoolVarP(&loadAll, "all", "a", false,
		"Load every page")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	if pages < 1 {
		return fmt.Errorf("--pages must be at least 1, got %d", pages)
	}
	f, err := formatter.New(outputFormat)
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	tp := util.GetTimeProvider()
	state, err := filters.State(tp.Location(), tp.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var view timeline.View
	err = app.WithEngine(ctx, func(ctx context.Context, engine *timeline.Engine) error {
		view, err = loadPages(ctx, engine, state, pages, loadAll)
		return err
	})
	if err != nil {
		return err
	}

	return f.Format(cmd.OutOrStdout(), reportOf(view))
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func initLogging() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	_ = ensureDir(filepath.Dir(logFile))
	util.InitLogger(logLevel, logFile, debug)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
