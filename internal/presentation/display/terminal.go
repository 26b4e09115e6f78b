package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/core/timeline"
	"github.com/penwyp/go-herdbook/internal/data/aggregator"
	"github.com/penwyp/go-herdbook/internal/util"
	"golang.org/x/term"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	minBodyHeight = 3
)

// Screen is everything the browser draws in one frame
type Screen struct {
	Groups []timeline.DayGroup
	// Selected indexes the flattened item list
	Selected int
	Stats    aggregator.Snapshot

	ShowStats bool
	Status    string // engine state label
	Stale     bool
	HasMore   bool
	Filters   string
	Notice    string
	// Search is the query being typed, nil when not editing
	Search *string
	Now    time.Time
}

// TerminalDisplay draws Screens in the alternate screen buffer, rewriting
// only the lines that changed since the previous frame.
type TerminalDisplay struct {
	out               io.Writer
	inAlternateScreen bool
	previousScreen    []string
	top               int // first visible body line
	size              func() (int, int)
}

// NewTerminalDisplay creates a display writing to stdout
func NewTerminalDisplay() *TerminalDisplay {
	return &TerminalDisplay{
		out:  os.Stdout,
		size: terminalSize,
	}
}

func terminalSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return defaultWidth, defaultHeight
	}
	return w, h
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.EnterAltScreen+util.ClearScreen+util.MoveCursorHome+util.HideCursor)
	td.inAlternateScreen = true
	td.previousScreen = nil
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.ClearScreen+util.MoveCursorHome+util.ShowCursor+util.ExitAltScreen)
	td.inAlternateScreen = false
}

// Render draws s, touching only changed lines
func (td *TerminalDisplay) Render(s Screen) {
	width, height := td.size()
	lines := td.frame(s, width, height)

	var b strings.Builder
	if len(td.previousScreen) != len(lines) {
		b.WriteString(util.ClearScreen)
		td.previousScreen = nil
	}
	for i, line := range lines {
		if i < len(td.previousScreen) && td.previousScreen[i] == line {
			continue
		}
		b.WriteString(util.MoveCursor(i+1, 1))
		b.WriteString(util.ClearLine)
		b.WriteString(line)
	}
	fmt.Fprint(td.out, b.String())
	td.previousScreen = lines
}

// frame lays out header, scrolled body and footer to exactly height lines
func (td *TerminalDisplay) frame(s Screen, width, height int) []string {
	header := headerLines(s, width)
	footer := footerLines(s, width)

	bodyHeight := height - len(header) - len(footer)
	if bodyHeight < minBodyHeight {
		bodyHeight = minBodyHeight
	}

	var body []string
	selectedLine := -1
	if s.ShowStats {
		body = statsLines(s.Stats, width)
		td.top = 0
	} else {
		body, selectedLine = bodyLines(s, width)
		td.top = scrollTop(td.top, selectedLine, len(body), bodyHeight)
	}

	lines := make([]string, 0, height)
	lines = append(lines, header...)
	for i := 0; i < bodyHeight; i++ {
		idx := td.top + i
		if idx < len(body) {
			lines = append(lines, body[idx])
		} else {
			lines = append(lines, "")
		}
	}
	lines = append(lines, footer...)
	return lines
}

// scrollTop keeps the selected line inside the window [top, top+height)
func scrollTop(top, selected, total, height int) int {
	if selected >= 0 {
		if selected < top {
			top = selected
		}
		if selected >= top+height {
			top = selected - height + 1
		}
	}
	if maxTop := total - height; top > maxTop {
		top = maxTop
	}
	if top < 0 {
		top = 0
	}
	return top
}

func headerLines(s Screen, width int) []string {
	title := "HERDBOOK TIMELINE"
	status := s.Status
	if s.Stale {
		status += " (previous results)"
	}
	lines := []string{
		util.FormatHeaderTitle(util.Truncate(title+"  "+status, width)),
		util.Colorize(util.ColorGray, util.Truncate("Filters: "+s.Filters, width)),
	}
	if s.Notice != "" {
		lines = append(lines, util.FormatErrorTitle(util.Truncate("! "+s.Notice, width)))
	}
	lines = append(lines, util.FormatSectionSeparator(width))
	return lines
}

func footerLines(s Screen, width int) []string {
	if s.Search != nil {
		return []string{util.Truncate("/"+*s.Search+"_", width)}
	}
	help := "j/k scroll  r refresh  t type  / search  s stats  x dismiss  R retry  q quit"
	return []string{util.Colorize(util.ColorGray, util.Truncate(help, width))}
}

// bodyLines flattens the groups into day headings and item rows and reports
// the line index of the selected item (-1 if none).
func bodyLines(s Screen, width int) ([]string, int) {
	var lines []string
	selectedLine := -1
	index := 0

	for _, g := range s.Groups {
		lines = append(lines, util.FormatDayTitle(util.Truncate(util.FormatDayHeading(g.Day, s.Now), width)))
		for _, item := range g.Items {
			selected := index == s.Selected
			if selected {
				selectedLine = len(lines)
			}
			lines = append(lines, itemLine(item, g.Day.Location(), width, selected))
			index++
		}
	}

	switch {
	case len(lines) == 0 && strings.HasPrefix(strings.ToLower(s.Status), "loading"):
		lines = append(lines, "  Loading...")
	case len(lines) == 0:
		lines = append(lines, "  No records match the current filters.")
	case s.HasMore:
		lines = append(lines, util.Colorize(util.ColorGray, "  ... scroll for more"))
	default:
		lines = append(lines, util.Colorize(util.ColorGray, "  -- end of timeline --"))
	}
	return lines, selectedLine
}

func itemLine(item model.TimelineItem, loc *time.Location, width int, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}

	kind := "ACT"
	color := util.ColorGreen
	if item.Type == model.ItemTransaction {
		kind = "EXP"
		color = util.ColorYellow
	}

	detail := item.Title
	if subject := item.DisplaySubject(); subject != "" {
		detail = subject + " · " + detail
	}
	if rec, ok := item.Transaction(); ok {
		detail += "  " + util.FormatAmount(rec.Amount, rec.Currency)
	}

	prefix := marker + item.Date.In(loc).Format("15:04") + " " + kind + " "
	text := util.Truncate(prefix+detail, width)
	if selected {
		return util.ColorBold + util.Colorize(color, text)
	}
	return util.Colorize(color, text)
}

func statsLines(stats aggregator.Snapshot, width int) []string {
	loaded := stats.Loaded
	lines := []string{
		util.FormatDayTitle("Loaded"),
		fmt.Sprintf("  Activities    %s", util.FormatNumber(loaded.Activities)),
		fmt.Sprintf("  Transactions  %s", util.FormatNumber(loaded.Transactions)),
		fmt.Sprintf("  Spent         %s", util.FormatCurrency(loaded.TransactionAmount)),
	}
	for _, name := range loaded.TopCategories(5) {
		lines = append(lines, fmt.Sprintf("    %-18s %d", util.Truncate(name, 18), loaded.ByCategory[name]))
	}

	lines = append(lines, "", util.FormatDayTitle("Expenses, full range"))
	switch {
	case stats.ServerPending:
		lines = append(lines, "  loading...")
	case stats.ServerErr != nil:
		lines = append(lines, util.Truncate("  unavailable: "+stats.ServerErr.Error(), width))
	case stats.Server != nil:
		agg := stats.Server
		lines = append(lines,
			fmt.Sprintf("  Total         %s", util.FormatCurrency(agg.Total)),
			fmt.Sprintf("  Count         %s", util.FormatNumber(agg.Count)),
			fmt.Sprintf("  Average       %s", util.FormatCurrency(agg.Average)))
		for _, c := range agg.CategoryBreakdown {
			lines = append(lines, fmt.Sprintf("    %-18s %s", util.Truncate(c.Category, 18), util.FormatCurrency(c.Amount)))
		}
	}
	if !stats.Consistent {
		lines = append(lines, "", util.Colorize(util.ColorGray, util.Truncate("  Loaded and full-range figures are not reconciled.", width)))
	}
	return lines
}
