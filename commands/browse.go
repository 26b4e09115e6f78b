package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/penwyp/go-herdbook/internal/application/browse"
	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/util"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	browseFilters  filterFlags
	browseNoWatch  bool
	browsePageJump int
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the timeline interactively",
	Long: `Opens a full-screen, infinitely scrolling view of the timeline. More records
are fetched as the selection nears the end of the list.

Keys:
  j/k, arrows      move the selection
  PgUp/PgDn        jump
  g                back to the top
  r                refresh from the first page
  t                cycle type filter (all, activities, expenses)
  /                search (Enter applies, Esc cancels)
  s                statistics panel
  x                dismiss the error banner
  R                retry failed pages
  q, Esc           quit

With a SQLite source, writes to the database refresh the view automatically.`,
	SilenceUsage: true,
	RunE:         runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)

	addFilterFlags(browseCmd, &browseFilters)
	browseCmd.Flags().BoolVar(&browseNoWatch, "no-watch", false,
		"Do not refresh when the database file changes")
	browseCmd.Flags().IntVar(&browsePageJump, "page-jump", 10,
		"Rows moved by PgUp/PgDn")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("browse needs an interactive terminal")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tp := util.GetTimeProvider()
	state, err := browseFilters.State(tp.Location(), tp.Now())
	if err != nil {
		return err
	}

	config := browse.BrowseConfig{
		Filters:  state,
		PageJump: browsePageJump,
	}
	if !browseNoWatch {
		config.WatchPath = a.dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return a.WithEngine(ctx, func(ctx context.Context, engine *timeline.Engine) error {
		orchestrator, err := browse.NewOrchestrator(config, engine)
		if err != nil {
			return err
		}
		return orchestrator.Run(ctx)
	})
}
