package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/core/timeline"
	"github.com/penwyp/go-herdbook/internal/data/aggregator"
	"github.com/penwyp/go-herdbook/internal/testing/fixtures"
	"github.com/penwyp/go-herdbook/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDisplay(width, height int) (*TerminalDisplay, *bytes.Buffer) {
	var buf bytes.Buffer
	return &TerminalDisplay{
		out:  &buf,
		size: func() (int, int) { return width, height },
	}, &buf
}

func sampleScreen(n int) Screen {
	builder := timeline.NewTimelineBuilder("UTC")
	var items []model.TimelineItem
	for _, rec := range fixtures.Activities(n, fixtures.BaseTime, 3*time.Hour) {
		items = append(items, timeline.NormalizeActivity(rec, timeline.NoSubjects))
	}
	return Screen{
		Groups:  builder.Group(items),
		Status:  "Loaded",
		HasMore: true,
		Filters: "all types",
		Now:     fixtures.BaseTime,
		Stats:   aggregator.Snapshot{Loaded: aggregator.ComputeLoaded(items)},
	}
}

func TestScrollTop(t *testing.T) {
	tests := []struct {
		name                          string
		top, selected, total, height int
		want                          int
	}{
		{"fits", 0, 2, 5, 10, 0},
		{"below window", 0, 12, 30, 10, 3},
		{"above window", 8, 4, 30, 10, 4},
		{"inside window", 5, 9, 30, 10, 5},
		{"clamped to end", 25, -1, 30, 10, 20},
		{"no selection", 3, -1, 30, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrollTop(tt.top, tt.selected, tt.total, tt.height))
		})
	}
}

func TestFrame_FillsHeight(t *testing.T) {
	td, _ := newTestDisplay(60, 20)
	lines := td.frame(sampleScreen(4), 60, 20)
	assert.Len(t, lines, 20)
}

func TestFrame_KeepsSelectionVisible(t *testing.T) {
	td, _ := newTestDisplay(60, 12)
	s := sampleScreen(40)
	s.Selected = 35

	lines := td.frame(s, 60, 12)
	require.Len(t, lines, 12)

	found := false
	for _, line := range lines {
		if strings.Contains(line, "> ") && strings.Contains(line, "check 35") {
			found = true
		}
	}
	assert.True(t, found, "selected item should be on screen")
	assert.Greater(t, td.top, 0)
}

func TestFrame_LinesFitWidth(t *testing.T) {
	td, _ := newTestDisplay(30, 15)
	s := sampleScreen(10)
	s.Notice = "Could not reach the server: connection refused by remote host"

	for _, line := range td.frame(s, 30, 15) {
		plain := stripANSI(line)
		assert.LessOrEqual(t, util.GetDisplayWidth(plain), 30, plain)
	}
}

func TestFrame_EmptyStates(t *testing.T) {
	td, _ := newTestDisplay(60, 10)

	lines := td.frame(Screen{Status: "Loading"}, 60, 10)
	assert.Contains(t, strings.Join(lines, "\n"), "Loading...")

	lines = td.frame(Screen{Status: "Exhausted"}, 60, 10)
	assert.Contains(t, strings.Join(lines, "\n"), "No records match")
}

func TestFrame_StatsPanel(t *testing.T) {
	td, _ := newTestDisplay(60, 30)
	s := sampleScreen(5)
	s.ShowStats = true
	s.Stats.Server = &model.TransactionAggregate{
		Total: 120, Count: 3, Average: 40,
		CategoryBreakdown: []model.CategoryAmount{{Category: "feed", Amount: 120, Count: 3}},
	}

	out := strings.Join(td.frame(s, 60, 30), "\n")
	assert.Contains(t, out, "Activities    5")
	assert.Contains(t, out, "$120.00")
	assert.Contains(t, out, "not reconciled")
}

func TestFrame_SearchPrompt(t *testing.T) {
	td, _ := newTestDisplay(60, 10)
	query := "bel"
	s := sampleScreen(2)
	s.Search = &query

	lines := td.frame(s, 60, 10)
	assert.Equal(t, "/bel_", lines[len(lines)-1])
}

func TestRender_Differential(t *testing.T) {
	td, buf := newTestDisplay(60, 10)
	s := sampleScreen(3)

	td.Render(s)
	first := buf.String()
	assert.Contains(t, first, util.ClearScreen)

	buf.Reset()
	td.Render(s)
	assert.Empty(t, buf.String())

	buf.Reset()
	s.Selected = 1
	td.Render(s)
	assert.NotEmpty(t, buf.String())
	assert.NotContains(t, buf.String(), util.ClearScreen)
}

func TestAlternateScreen(t *testing.T) {
	td, buf := newTestDisplay(60, 10)
	td.EnterAlternateScreen()
	td.EnterAlternateScreen()
	assert.Equal(t, 1, strings.Count(buf.String(), util.EnterAltScreen))

	td.ExitAlternateScreen()
	assert.Contains(t, buf.String(), util.ExitAltScreen)
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEscape = false
		case !inEscape:
			b.WriteRune(r)
		}
	}
	return b.String()
}
