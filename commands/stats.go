package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/data/aggregator"
	"github.com/penwyp/go-herdbook/internal/presentation/formatter"
	"github.com/penwyp/go-herdbook/internal/util"
	"github.com/spf13/cobra"
)

var (
	statsFilters filterFlags
	statsOutput  string
	statsPages   int
	statsAll     bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print timeline statistics",
	Long: `Prints counts over the loaded records next to the server-side expense
aggregate for the same subject and date range.

The loaded figures cover only the pages fetched so far, while the expense
aggregate covers the whole range. The two are reported side by side and are
not reconciled.`,
	SilenceUsage: true,
	RunE:         runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	addFilterFlags(statsCmd, &statsFilters)
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", formatter.OutputSummary,
		"Output format (summary, json)")
	statsCmd.Flags().IntVarP(&statsPages, "pages", "p", 1,
		"Number of pages to load per source")
	statsCmd.Flags().BoolVarP(&statsAll, "all", "a", false,
		"Load every page")
}

// statsReport is the JSON shape of the stats command
type statsReport struct {
	aggregator.Snapshot
	State       string `json:"state"`
	Visible     int    `json:"visible"`
	HasMore     bool   `json:"hasMore"`
	ServerError string `json:"serverError,omitempty"`
	Error       string `json:"error,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsOutput != formatter.OutputSummary && statsOutput != formatter.OutputJSON {
		return fmt.Errorf("unknown output format '%s': must be summary or json", statsOutput)
	}
	if statsPages < 1 {
		return fmt.Errorf("--pages must be at least 1, got %d", statsPages)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tp := util.GetTimeProvider()
	state, err := statsFilters.State(tp.Location(), tp.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var view timeline.View
	err = a.WithEngine(ctx, func(ctx context.Context, engine *timeline.Engine) error {
		view, err = loadPages(ctx, engine, state, statsPages, statsAll)
		return err
	})
	if err != nil {
		return err
	}

	return writeStats(cmd.OutOrStdout(), view, statsOutput)
}

func writeStats(w io.Writer, view timeline.View, output string) error {
	if output == formatter.OutputJSON {
		report := statsReport{
			Snapshot: view.Stats,
			State:    view.State.String(),
			Visible:  view.Visible,
			HasMore:  view.HasMore(),
			Error:    view.LastError.Message(),
		}
		if view.Stats.ServerErr != nil {
			report.ServerError = view.Stats.ServerErr.Error()
		}
		data, err := sonic.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	return formatter.NewSummaryFormatter().Format(w, reportOf(view))
}
