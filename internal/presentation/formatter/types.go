package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/core/timeline"
	"github.com/penwyp/go-herdbook/internal/data/aggregator"
	"github.com/penwyp/go-herdbook/internal/util"
)

// Report is the grouped view plus statistics handed to every formatter
type Report struct {
	Groups []timeline.DayGroup
	Stats  aggregator.Snapshot
	// HasMore is set when further pages could be loaded
	HasMore bool
	// Stale is set when Groups belong to a previous, superseded load
	Stale  bool
	Notice string
	// Now anchors relative day headings such as "Today"
	Now time.Time
}

// Formatter renders a report to w
type Formatter interface {
	Format(w io.Writer, r Report) error
}

// Supported output formats
const (
	OutputTable   = "table"
	OutputJSON    = "json"
	OutputCSV     = "csv"
	OutputSummary = "summary"
)

// New returns the formatter for an output format name
func New(output string) (Formatter, error) {
	switch strings.ToLower(output) {
	case OutputTable, "":
		return NewTableFormatter(), nil
	case OutputJSON:
		return NewJSONFormatter(), nil
	case OutputCSV:
		return NewCSVFormatter(), nil
	case OutputSummary:
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format '%s': must be table, json, csv or summary", output)
	}
}

// itemAmount returns the formatted amount of a transaction item, or "" for activities
func itemAmount(item model.TimelineItem) string {
	rec, ok := item.Transaction()
	if !ok {
		return ""
	}
	return util.FormatAmount(rec.Amount, rec.Currency)
}

func visibleCount(groups []timeline.DayGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Items)
	}
	return n
}
