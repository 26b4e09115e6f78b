package browse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/presentation/display"
	"github.com/penwyp/go-herdbook/internal/presentation/interaction"
	"github.com/penwyp/go-herdbook/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimeline struct {
	mu       sync.Mutex
	view     timeline.View
	calls    []string
	filters  []model.FilterState
	scrolled []int
	updates  chan struct{}
	ticket   timeline.Ticket
}

func newFakeTimeline(visible int) *fakeTimeline {
	return &fakeTimeline{
		view:    timeline.View{State: timeline.StateLoaded, Visible: visible, Loaded: visible},
		updates: make(chan struct{}, 1),
	}
}

func (f *fakeTimeline) record(call string) timeline.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.ticket++
	return f.ticket
}

func (f *fakeTimeline) Reset(filters model.FilterState) timeline.Ticket {
	f.mu.Lock()
	f.filters = append(f.filters, filters)
	f.mu.Unlock()
	return f.record("reset")
}

func (f *fakeTimeline) LoadMore() timeline.Ticket { return f.record("loadMore") }

func (f *fakeTimeline) SetFilters(filters model.FilterState) timeline.Ticket {
	f.mu.Lock()
	f.filters = append(f.filters, filters)
	f.mu.Unlock()
	return f.record("setFilters")
}

func (f *fakeTimeline) OnScrollPositionChanged(distance int) timeline.Ticket {
	f.mu.Lock()
	f.scrolled = append(f.scrolled, distance)
	f.mu.Unlock()
	return f.record("scroll")
}

func (f *fakeTimeline) OnRefreshRequested() timeline.Ticket { return f.record("refresh") }
func (f *fakeTimeline) DismissError() timeline.Ticket       { return f.record("dismiss") }
func (f *fakeTimeline) Retry() timeline.Ticket              { return f.record("retry") }

func (f *fakeTimeline) View() timeline.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeTimeline) Subscribe() (<-chan struct{}, func()) {
	return f.updates, func() {}
}

func (f *fakeTimeline) Await(ctx context.Context, t timeline.Ticket) (timeline.View, error) {
	return f.View(), nil
}

func (f *fakeTimeline) Subjects() []model.Subject {
	return fixtures.SampleSubjects()
}

func (f *fakeTimeline) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTimeline) LastFilters() model.FilterState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters[len(f.filters)-1]
}

type fakeDisplay struct {
	mu      sync.Mutex
	screens []display.Screen
}

func (d *fakeDisplay) EnterAlternateScreen() {}
func (d *fakeDisplay) ExitAlternateScreen()  {}

func (d *fakeDisplay) Render(s display.Screen) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screens = append(d.screens, s)
}

func (d *fakeDisplay) Last() display.Screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screens[len(d.screens)-1]
}

func (d *fakeDisplay) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.screens)
}

type fakeInput struct {
	events chan interaction.KeyEvent
}

func (i *fakeInput) Events() <-chan interaction.KeyEvent { return i.events }
func (i *fakeInput) Close() error                       { return nil }

func newTestOrchestrator(t *testing.T, engine *fakeTimeline) (*Orchestrator, *fakeDisplay) {
	t.Helper()
	o, err := NewOrchestrator(BrowseConfig{}, engine)
	require.NoError(t, err)
	d := &fakeDisplay{}
	o.display = d
	o.now = func() time.Time { return fixtures.BaseTime }
	return o, d
}

func char(r rune) interaction.KeyEvent {
	return interaction.KeyEvent{Key: r, Type: interaction.KeyChar}
}

func key(t interaction.KeyType) interaction.KeyEvent {
	return interaction.KeyEvent{Type: t}
}

func TestNewOrchestrator_Defaults(t *testing.T) {
	o, err := NewOrchestrator(BrowseConfig{}, newFakeTimeline(0))
	require.NoError(t, err)
	assert.Equal(t, 10, o.config.PageJump)
	assert.Positive(t, o.config.RefreshDebounce)
}

func TestHandleKeyboard_Quit(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeTimeline(0))

	assert.True(t, o.handleKeyboard(char('q')))
	assert.True(t, o.handleKeyboard(key(interaction.KeyInterrupt)))
	assert.True(t, o.handleKeyboard(key(interaction.KeyEscape)))
	assert.False(t, o.handleKeyboard(char('z')))
}

func TestHandleKeyboard_EscapeClosesStatsFirst(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeTimeline(0))

	o.handleKeyboard(char('s'))
	assert.True(t, o.showStats)
	assert.False(t, o.handleKeyboard(key(interaction.KeyEscape)))
	assert.False(t, o.showStats)
	assert.True(t, o.handleKeyboard(key(interaction.KeyEscape)))
}

func TestHandleKeyboard_MovementReportsDistance(t *testing.T) {
	engine := newFakeTimeline(30)
	o, _ := newTestOrchestrator(t, engine)

	o.handleKeyboard(char('j'))
	o.handleKeyboard(key(interaction.KeyDown))
	o.handleKeyboard(key(interaction.KeyPageDown))
	o.handleKeyboard(char('k'))
	o.handleKeyboard(key(interaction.KeyUp))
	o.handleKeyboard(key(interaction.KeyPageUp))

	assert.Equal(t, []int{28, 27, 17, 18, 19, 29}, engine.scrolled)
	assert.Equal(t, 0, o.nav.Selected())
}

func TestHandleKeyboard_MovementClampsAtEnd(t *testing.T) {
	engine := newFakeTimeline(5)
	o, _ := newTestOrchestrator(t, engine)

	o.handleKeyboard(key(interaction.KeyPageDown))
	assert.Equal(t, 4, o.nav.Selected())
	assert.Equal(t, []int{0}, engine.scrolled)
}

func TestHandleKeyboard_Commands(t *testing.T) {
	engine := newFakeTimeline(10)
	o, _ := newTestOrchestrator(t, engine)
	o.nav.SetCount(10)
	o.nav.Move(4)

	o.handleKeyboard(char('r'))
	assert.Equal(t, 0, o.nav.Selected())
	o.handleKeyboard(char('x'))
	o.handleKeyboard(char('R'))

	assert.Equal(t, []string{"refresh", "dismiss", "retry"}, engine.Calls())
}

func TestHandleKeyboard_TypeFilterCycle(t *testing.T) {
	engine := newFakeTimeline(10)
	o, _ := newTestOrchestrator(t, engine)

	o.handleKeyboard(char('t'))
	assert.Equal(t, []model.ItemType{model.ItemActivity}, engine.LastFilters().EnabledTypes)
	o.handleKeyboard(char('t'))
	assert.Equal(t, []model.ItemType{model.ItemTransaction}, engine.LastFilters().EnabledTypes)
	o.handleKeyboard(char('t'))
	assert.Empty(t, engine.LastFilters().EnabledTypes)

	assert.Equal(t, []string{"setFilters", "setFilters", "setFilters"}, engine.Calls())
}

func TestHandleKeyboard_Search(t *testing.T) {
	engine := newFakeTimeline(10)
	o, _ := newTestOrchestrator(t, engine)

	o.handleKeyboard(char('/'))
	require.NotNil(t, o.search)

	// Keys are captured by the prompt while searching
	for _, r := range "bellq" {
		assert.False(t, o.handleKeyboard(char(r)))
	}
	o.handleKeyboard(key(interaction.KeyBackspace))
	assert.Equal(t, "bell", *o.search)
	assert.Empty(t, engine.Calls())

	o.handleKeyboard(key(interaction.KeyEnter))
	assert.Nil(t, o.search)
	assert.Equal(t, "bell", engine.LastFilters().SearchText)
	assert.Equal(t, "bell", o.filters.SearchText)
}

func TestHandleKeyboard_SearchCancel(t *testing.T) {
	engine := newFakeTimeline(10)
	o, _ := newTestOrchestrator(t, engine)

	o.handleKeyboard(char('/'))
	o.handleKeyboard(char('x'))
	o.handleKeyboard(key(interaction.KeyEscape))

	assert.Nil(t, o.search)
	assert.Empty(t, engine.Calls())
	assert.Empty(t, o.filters.SearchText)
}

func TestHandleKeyboard_SearchBackspaceMultibyte(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeTimeline(0))

	o.handleKeyboard(char('/'))
	o.handleKeyboard(char('é'))
	o.handleKeyboard(key(interaction.KeyBackspace))
	assert.Equal(t, "", *o.search)
	o.handleKeyboard(key(interaction.KeyBackspace))
	assert.Equal(t, "", *o.search)
}

func TestScreen_FromView(t *testing.T) {
	engine := newFakeTimeline(3)
	engine.view.Stale = true
	engine.view.LastError = &timeline.Notification{
		Err:       errors.New("timeout"),
		Kind:      timeline.NotifyNetwork,
		Retryable: true,
	}
	o, _ := newTestOrchestrator(t, engine)
	o.filters.SubjectID = model.StringPtr("subj-bella")

	s := o.screen(engine.View())

	assert.Equal(t, "loaded  3 shown / 3 loaded", s.Status)
	assert.True(t, s.Stale)
	assert.True(t, s.HasMore)
	assert.Equal(t, "all types  subject=Bella", s.Filters)
	assert.Equal(t, "Could not reach the server: timeout  (R to retry, x to dismiss)", s.Notice)
	assert.Equal(t, fixtures.BaseTime, s.Now)
}

func TestScreen_AuthNotice(t *testing.T) {
	engine := newFakeTimeline(0)
	engine.view.LastError = &timeline.Notification{
		Err:  errors.New("401"),
		Kind: timeline.NotifyAuth,
	}
	o, _ := newTestOrchestrator(t, engine)

	s := o.screen(engine.View())
	assert.Equal(t, "Session expired, sign in again: 401  (x to dismiss)", s.Notice)
}

func TestScreen_SubjectNameFallbacks(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeTimeline(0))

	o.filters.SubjectID = model.StringPtr("subj-unnamed")
	assert.Contains(t, o.screen(timeline.View{}).Filters, "subject=IE-3001")

	o.filters.SubjectID = model.StringPtr("subj-gone")
	assert.Contains(t, o.screen(timeline.View{}).Filters, "subject=subj-gone")
}

func TestLoop_ResetsRendersAndQuits(t *testing.T) {
	engine := newFakeTimeline(5)
	o, d := newTestOrchestrator(t, engine)
	o.filters.Category = model.StringPtr("feeding")

	input := &fakeInput{events: make(chan interaction.KeyEvent, 4)}
	changes := make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- o.loop(context.Background(), input, changes) }()

	changes <- struct{}{}
	require.Eventually(t, func() bool {
		calls := engine.Calls()
		return len(calls) == 2 && calls[1] == "refresh"
	}, time.Second, 5*time.Millisecond)

	input.events <- char('q')
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	assert.Equal(t, "reset", engine.Calls()[0])
	assert.Equal(t, "feeding", *engine.filters[0].Category)
	assert.GreaterOrEqual(t, d.Count(), 1)
}

func TestLoop_StopsOnCancel(t *testing.T) {
	engine := newFakeTimeline(0)
	o, d := newTestOrchestrator(t, engine)
	input := &fakeInput{events: make(chan interaction.KeyEvent)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.loop(ctx, input, nil) }()

	engine.updates <- struct{}{}
	require.Eventually(t, func() bool { return d.Count() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
