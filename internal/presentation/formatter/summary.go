package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-herdbook/internal/util"
)

// topCategoryCount limits the loaded category list
const topCategoryCount = 8

// SummaryFormatter writes the statistics snapshot as a plain report.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// Format writes date range, loaded tallies and the server aggregate.
func (f *SummaryFormatter) Format(w io.Writer, r Report) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Herd Timeline Summary")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if r.Notice != "" {
		fmt.Fprintf(w, "Notice: %s\n\n", r.Notice)
	}

	if len(r.Groups) > 0 {
		newest := r.Groups[0].Key
		oldest := r.Groups[len(r.Groups)-1].Key
		if newest == oldest {
			fmt.Fprintf(w, "Date Range: %s\n", newest)
		} else {
			fmt.Fprintf(w, "Date Range: %s to %s\n", oldest, newest)
		}
		fmt.Fprintln(w)
	}

	loaded := r.Stats.Loaded
	fmt.Fprintln(w, "Loaded Records:")
	fmt.Fprintf(w, "  Activities:    %s\n", util.FormatNumber(loaded.Activities))
	fmt.Fprintf(w, "  Transactions:  %s\n", util.FormatNumber(loaded.Transactions))
	fmt.Fprintf(w, "  Total:         %s\n", util.FormatNumber(loaded.Total))
	fmt.Fprintf(w, "  Visible:       %s\n", util.FormatNumber(visibleCount(r.Groups)))
	fmt.Fprintf(w, "  Spent:         %s\n", util.FormatCurrency(loaded.TransactionAmount))
	if r.HasMore {
		fmt.Fprintln(w, "  (more pages available)")
	}
	fmt.Fprintln(w)

	if top := loaded.TopCategories(topCategoryCount); len(top) > 0 {
		fmt.Fprintln(w, "Loaded Categories:")
		for _, name := range top {
			fmt.Fprintf(w, "  %-20s %s\n", name, util.FormatNumber(loaded.ByCategory[name]))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Expenses (full range, server):")
	switch {
	case r.Stats.ServerPending:
		fmt.Fprintln(w, "  loading...")
	case r.Stats.ServerErr != nil:
		fmt.Fprintf(w, "  unavailable: %v\n", r.Stats.ServerErr)
	case r.Stats.Server != nil:
		agg := r.Stats.Server
		fmt.Fprintf(w, "  Total:         %s\n", util.FormatCurrency(agg.Total))
		fmt.Fprintf(w, "  Count:         %s\n", util.FormatNumber(agg.Count))
		fmt.Fprintf(w, "  Average:       %s\n", util.FormatCurrency(agg.Average))
		if len(agg.CategoryBreakdown) > 0 {
			fmt.Fprintln(w, strings.Repeat("-", 60))
			for _, c := range agg.CategoryBreakdown {
				fmt.Fprintf(w, "  %-20s %12s  (%d)\n", c.Category, util.FormatCurrency(c.Amount), c.Count)
			}
		}
	default:
		fmt.Fprintln(w, "  not requested")
	}

	if !r.Stats.Consistent && r.Stats.Server != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Note: loaded figures cover only the pages fetched so far; server figures")
		fmt.Fprintln(w, "cover the whole range. The two are not reconciled.")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	return nil
}
