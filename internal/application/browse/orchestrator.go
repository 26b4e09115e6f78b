package browse

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/presentation/display"
	"github.com/penwyp/go-herdbook/internal/presentation/interaction"
	"github.com/penwyp/go-herdbook/internal/util"
)

// redrawInterval picks up terminal resizes between engine updates
const redrawInterval = time.Second

// Orchestrator drives a timeline engine from the keyboard and renders its view
type Orchestrator struct {
	config  BrowseConfig
	engine  timeline.Timeline
	display DisplayController
	now     func() time.Time

	nav       Navigator
	filters   model.FilterState
	showStats bool
	search    *string // query being typed
}

// NewOrchestrator creates a browser for a running engine
func NewOrchestrator(config BrowseConfig, engine timeline.Timeline) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Orchestrator{
		config:  config,
		engine:  engine,
		display: display.NewTerminalDisplay(),
		now:     func() time.Time { return util.GetTimeProvider().Now() },
		filters: config.Filters.Clone(),
	}, nil
}

// Run takes over the terminal until the user quits or ctx is cancelled
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting timeline browser...")

	keyboard, err := interaction.NewKeyboardReader()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	defer keyboard.Close()

	var changes <-chan struct{}
	if o.config.WatchPath != "" {
		watcher, err := NewFileWatcher(o.config.WatchPath, o.config.RefreshDebounce)
		if err != nil {
			util.LogWarnf("File watching disabled: %v", err)
		} else {
			defer watcher.Close()
			changes = watcher.Changes()
		}
	}

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	return o.loop(ctx, keyboard, changes)
}

func (o *Orchestrator) loop(ctx context.Context, input InputHandler, changes <-chan struct{}) error {
	updates, unsubscribe := o.engine.Subscribe()
	defer unsubscribe()

	o.engine.Reset(o.filters)
	o.render()

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down timeline browser...")
			return nil

		case <-updates:
			o.render()

		case <-ticker.C:
			o.render()

		case <-changes:
			util.LogDebug("Database changed, refreshing timeline")
			o.engine.OnRefreshRequested()

		case event := <-input.Events():
			if o.handleKeyboard(event) {
				return nil
			}
			o.render()
		}
	}
}

// handleKeyboard applies one key press. Returns true when the user quits.
func (o *Orchestrator) handleKeyboard(event interaction.KeyEvent) bool {
	if event.Type == interaction.KeyInterrupt {
		return true
	}
	if o.search != nil {
		o.handleSearchInput(event)
		return false
	}

	switch event.Type {
	case interaction.KeyEscape:
		if o.showStats {
			o.showStats = false
			return false
		}
		return true
	case interaction.KeyUp:
		o.move(-1)
	case interaction.KeyDown:
		o.move(1)
	case interaction.KeyPageUp:
		o.move(-o.config.PageJump)
	case interaction.KeyPageDown:
		o.move(o.config.PageJump)
	case interaction.KeyChar:
		switch event.Key {
		case 'q':
			return true
		case 'j':
			o.move(1)
		case 'k':
			o.move(-1)
		case 'g':
			o.nav.Home()
		case 'r':
			o.nav.Home()
			o.engine.OnRefreshRequested()
		case 't':
			next := o.filters.Clone()
			next.EnabledTypes = NextTypeFilter(o.filters.EnabledTypes)
			o.applyFilters(next)
		case '/':
			query := o.filters.SearchText
			o.search = &query
		case 's':
			o.showStats = !o.showStats
		case 'x':
			o.engine.DismissError()
		case 'R':
			o.engine.Retry()
		}
	}
	return false
}

func (o *Orchestrator) handleSearchInput(event interaction.KeyEvent) {
	switch event.Type {
	case interaction.KeyEnter:
		next := o.filters.Clone()
		next.SearchText = *o.search
		o.search = nil
		o.applyFilters(next)
	case interaction.KeyEscape:
		o.search = nil
	case interaction.KeyBackspace:
		q := *o.search
		if q != "" {
			_, size := utf8.DecodeLastRuneInString(q)
			q = q[:len(q)-size]
		}
		o.search = &q
	case interaction.KeyChar:
		q := *o.search + string(event.Key)
		o.search = &q
	}
}

func (o *Orchestrator) move(delta int) {
	o.nav.SetCount(o.engine.View().Visible)
	o.nav.Move(delta)
	o.engine.OnScrollPositionChanged(o.nav.DistanceFromEnd())
}

func (o *Orchestrator) applyFilters(next model.FilterState) {
	o.filters = next
	o.nav.Home()
	o.engine.SetFilters(next)
}

// render draws the latest engine view
func (o *Orchestrator) render() {
	o.display.Render(o.screen(o.engine.View()))
}

func (o *Orchestrator) screen(v timeline.View) display.Screen {
	o.nav.SetCount(v.Visible)

	names := make(map[string]string)
	for _, s := range o.engine.Subjects() {
		if s.Name != "" {
			names[s.ID] = s.Name
		} else if s.Tag != "" {
			names[s.ID] = s.Tag
		}
	}
	nameOf := func(id string) (string, bool) {
		name, ok := names[id]
		return name, ok
	}

	notice := ""
	if v.LastError != nil {
		notice = v.LastError.Message()
		if v.LastError.Retryable {
			notice += "  (R to retry, x to dismiss)"
		} else {
			notice += "  (x to dismiss)"
		}
	}

	return display.Screen{
		Groups:    v.Groups,
		Selected:  o.nav.Selected(),
		Stats:     v.Stats,
		ShowStats: o.showStats,
		Status:    fmt.Sprintf("%s  %d shown / %d loaded", v.State, v.Visible, v.Loaded),
		Stale:     v.Stale,
		HasMore:   v.HasMore(),
		Filters:   DescribeFilters(o.filters, nameOf),
		Notice:    notice,
		Search:    o.search,
		Now:       o.now(),
	}
}
