package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-herdbook/internal/util"
)

// maxTitleWidth caps the Title column so rows fit a terminal
const maxTitleWidth = 48

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{"Day", "Time", "Type", "Subject", "Category", "Title", "Amount"},
	}
}

func (f *TableFormatter) Format(w io.Writer, r Report) error {
	rows := f.buildRows(r)
	total := f.totalRow(r)
	widths := f.calculateColumnWidths(rows, total)

	if r.Notice != "" {
		fmt.Fprintf(w, "! %s\n", r.Notice)
	}
	if r.Stale {
		fmt.Fprintln(w, "(showing previous results)")
	}

	f.printBorder(w, widths, "top")
	f.printRow(w, f.headers, widths)
	f.printBorder(w, widths, "middle")

	for i, group := range rows {
		for _, row := range group {
			f.printRow(w, row, widths)
		}
		if i < len(rows)-1 {
			f.printBorder(w, widths, "middle")
		}
	}

	f.printBorder(w, widths, "middle")
	f.printRow(w, total, widths)
	f.printBorder(w, widths, "bottom")

	if r.HasMore {
		fmt.Fprintln(w, "More records available, use --pages or --all to load them.")
	}
	return nil
}

// buildRows renders one row per item, grouped by day. The day heading only
// appears on the first row of its group.
func (f *TableFormatter) buildRows(r Report) [][][]string {
	out := make([][][]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		heading := util.FormatDayHeading(g.Day, r.Now)
		group := make([][]string, 0, len(g.Items))
		for i, item := range g.Items {
			day := ""
			if i == 0 {
				day = heading
			}
			group = append(group, []string{
				day,
				item.Date.In(g.Day.Location()).Format("15:04"),
				item.Type.String(),
				item.DisplaySubject(),
				item.Category,
				util.Truncate(item.Title, maxTitleWidth),
				itemAmount(item),
			})
		}
		out = append(out, group)
	}
	return out
}

func (f *TableFormatter) totalRow(r Report) []string {
	loaded := r.Stats.Loaded
	return []string{
		"Total",
		"",
		fmt.Sprintf("%d items", visibleCount(r.Groups)),
		"",
		"",
		fmt.Sprintf("%d loaded", loaded.Total),
		util.FormatCurrency(loaded.TransactionAmount),
	}
}

// calculateColumnWidths determines optimal width for each column based on content
func (f *TableFormatter) calculateColumnWidths(rows [][][]string, total []string) []int {
	widths := make([]int, len(f.headers))
	measure := func(values []string) {
		for i, value := range values {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}

	measure(f.headers)
	for _, group := range rows {
		for _, row := range group {
			measure(row)
		}
	}
	measure(total)

	// Apply minimum widths for readability
	for i := range widths {
		if widths[i] < 5 {
			widths[i] = 5
		}
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(w io.Writer, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(w, b.String())
}

// printRow prints a row; the Amount column is right-aligned
func (f *TableFormatter) printRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	b.WriteString("│")
	last := len(values) - 1
	for i, value := range values {
		b.WriteString(" ")
		if i == last {
			b.WriteString(util.PadLeft(value, widths[i]))
		} else {
			b.WriteString(util.PadRight(value, widths[i]))
		}
		b.WriteString(" │")
	}
	fmt.Fprintln(w, b.String())
}
