package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/cache"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/core/timeline"
	"github.com/penwyp/go-herdbook/internal/data/aggregator"
	datacache "github.com/penwyp/go-herdbook/internal/data/cache"
	"github.com/penwyp/go-herdbook/internal/data/source"
	"github.com/penwyp/go-herdbook/internal/util"
)

// ErrEngineStopped is returned by Await once Run has returned
var ErrEngineStopped = errors.New("timeline engine stopped")

// Dependencies wires the engine to its collaborators
type Dependencies struct {
	Service source.RemoteService
	// Adapters defaults to source.DefaultAdapters(Service)
	Adapters []source.Adapter
	// SubjectCache keeps the last subject list for when ListSubjects fails. Optional.
	SubjectCache datacache.Cache
}

type commandKind int

const (
	cmdReset commandKind = iota
	cmdLoadMore
	cmdSetFilters
	cmdScroll
	cmdRefresh
	cmdDismiss
	cmdRetry
)

type command struct {
	kind     commandKind
	ticket   Ticket
	filters  model.FilterState
	distance int
}

type statsResult struct {
	gen uint64
	agg *model.TransactionAggregate
	err error
}

// Engine owns one timeline. All state changes happen on the Run goroutine;
// the exported methods only enqueue commands and never block on I/O.
type Engine struct {
	config       EngineConfig
	svc          source.RemoteService
	subjectCache datacache.Cache
	log          util.LoggerInterface
	now          func() time.Time

	builder  *timeline.TimelineBuilder
	pipeline *timeline.FilterPipeline
	coord    *Coordinator
	fetcher  *Fetcher
	stats    *aggregator.Aggregator
	subjects *cache.SubjectDirectory
	scroll   *ScrollController
	state    *StateManager

	cmds       chan command
	results    chan BatchResult
	statsCh    chan statsResult
	done       chan struct{}
	running    atomic.Bool
	sendMu     sync.Mutex
	nextTicket Ticket

	// Owned by the Run goroutine
	filters     model.FilterState
	previous    []model.TimelineItem
	cancelFetch context.CancelFunc
	cancelStats context.CancelFunc
	statsGen    uint64
	server      aggregator.Snapshot
	lastErr     *Notification
	processed   Ticket
}

// NewEngine creates an engine. Call Run to start processing commands.
func NewEngine(config EngineConfig, deps Dependencies) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Service == nil {
		return nil, errors.New("remote service is required")
	}

	adapters := deps.Adapters
	if len(adapters) == 0 {
		adapters = source.DefaultAdapters(deps.Service)
	}

	builder := timeline.NewTimelineBuilder(config.Timezone)
	subjects := cache.NewSubjectDirectory()

	return &Engine{
		config:       config,
		svc:          deps.Service,
		subjectCache: deps.SubjectCache,
		log:          util.Component("engine"),
		now:          time.Now,
		builder:      builder,
		pipeline:     timeline.NewFilterPipeline(),
		coord:        NewCoordinator(config.PageSize, builder, subjects.Lookup),
		fetcher:      NewFetcher(adapters, config.RequestTimeout),
		stats:        aggregator.NewAggregator(deps.Service),
		subjects:     subjects,
		scroll:       NewScrollController(config.LoadMoreThreshold),
		state:        NewStateManager(),
		cmds:         make(chan command, 64),
		results:      make(chan BatchResult),
		statsCh:      make(chan statsResult),
		done:         make(chan struct{}),
	}, nil
}

// Reset starts a new epoch with filters and refreshes the server aggregate
func (e *Engine) Reset(filters model.FilterState) Ticket {
	return e.enqueue(command{kind: cmdReset, filters: filters.Clone()})
}

// LoadMore requests the next page of every non-exhausted source
func (e *Engine) LoadMore() Ticket {
	return e.enqueue(command{kind: cmdLoadMore})
}

// SetFilters applies new filters. Push-down changes start a new epoch;
// anything else only recomputes the visible groups.
func (e *Engine) SetFilters(filters model.FilterState) Ticket {
	return e.enqueue(command{kind: cmdSetFilters, filters: filters.Clone()})
}

// OnScrollPositionChanged reports how many items remain below the viewport
func (e *Engine) OnScrollPositionChanged(distanceFromEnd int) Ticket {
	return e.enqueue(command{kind: cmdScroll, distance: distanceFromEnd})
}

// OnRefreshRequested reloads from page 0 with the current filters
func (e *Engine) OnRefreshRequested() Ticket {
	return e.enqueue(command{kind: cmdRefresh})
}

// DismissError clears the current notification
func (e *Engine) DismissError() Ticket {
	return e.enqueue(command{kind: cmdDismiss})
}

// Retry re-requests failed pages: a full reset after a failed initial load,
// otherwise the next page of every non-exhausted source.
func (e *Engine) Retry() Ticket {
	return e.enqueue(command{kind: cmdRetry})
}

// View returns the latest published snapshot
func (e *Engine) View() View {
	return e.state.View()
}

// Subscribe returns a channel signalled whenever a new view is published
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	return e.state.Subscribe()
}

// Subjects returns the subjects known to the name lookup
func (e *Engine) Subjects() []model.Subject {
	return e.subjects.Subjects()
}

// Await blocks until the command behind t has been handled and nothing is in flight
func (e *Engine) Await(ctx context.Context, t Ticket) (View, error) {
	updates, unsubscribe := e.state.Subscribe()
	defer unsubscribe()

	for {
		v := e.state.View()
		if v.Processed >= t && v.Settled() {
			return v, nil
		}
		select {
		case <-updates:
		case <-e.done:
			return e.state.View(), ErrEngineStopped
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}

// enqueue numbers and sends cmd under one lock so tickets reach Run in order
func (e *Engine) enqueue(cmd command) Ticket {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	e.nextTicket++
	cmd.ticket = e.nextTicket
	select {
	case e.cmds <- cmd:
	case <-e.done:
	}
	return cmd.ticket
}

// Run loads the subject lookup and then processes commands and fetch
// completions until ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("timeline engine already running")
	}
	defer e.shutdown()

	e.log.Info("Timeline engine started")
	e.loadSubjects(ctx)
	e.publish()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("Timeline engine stopping")
			return nil

		case cmd := <-e.cmds:
			e.handle(ctx, cmd)
			e.processed = max(e.processed, cmd.ticket)
			e.publish()

		case res := <-e.results:
			if e.handleBatch(res) {
				e.publish()
			}

		case res := <-e.statsCh:
			if e.handleStats(res) {
				e.publish()
			}
		}
	}
}

func (e *Engine) shutdown() {
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	if e.cancelStats != nil {
		e.cancelStats()
	}
	close(e.done)
}

func (e *Engine) loadSubjects(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout)
	defer cancel()

	subjects, err := e.svc.ListSubjects(lctx)
	if err == nil {
		e.subjects.Replace(subjects, false)
		e.log.Infof("Loaded %d subjects", len(subjects))
		if e.subjectCache != nil {
			if err := e.subjectCache.Set(e.config.SubjectCacheKey, subjects); err != nil {
				e.log.Warnf("Failed to cache subjects: %v", err)
			}
		}
		return
	}

	e.log.Warnf("Failed to load subjects: %v", err)
	if e.subjectCache == nil {
		return
	}
	if res := e.subjectCache.Get(e.config.SubjectCacheKey); res.Found {
		e.subjects.Replace(res.Data.Subjects, true)
		e.log.Infof("Using %d cached subjects from %s", len(res.Data.Subjects),
			time.Unix(res.Data.FetchedAt, 0).Format(time.RFC3339))
	}
}

func (e *Engine) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdReset:
		e.reset(ctx, cmd.filters)
	case cmdLoadMore:
		e.loadMore(ctx)
	case cmdSetFilters:
		e.setFilters(ctx, cmd.filters)
	case cmdScroll:
		if e.scroll.Observe(cmd.distance) {
			e.log.Debugf("Scroll within %d of the end, loading more", cmd.distance)
			e.loadMore(ctx)
		}
	case cmdRefresh:
		e.reset(ctx, e.filters)
	case cmdDismiss:
		e.lastErr = nil
	case cmdRetry:
		e.lastErr = nil
		switch e.coord.State() {
		case StateIdle, StateFailed:
			e.reset(ctx, e.filters)
		default:
			if batch, ok := e.coord.Retry(); ok {
				e.dispatch(ctx, batch)
			}
		}
	}
}

func (e *Engine) reset(ctx context.Context, filters model.FilterState) {
	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}
	// Keep the last loaded data on screen until the new epoch has something
	if items := e.coord.Items(); len(items) > 0 {
		e.previous = items
	}

	e.filters = filters
	e.lastErr = nil
	e.scroll.Rearm()

	batch := e.coord.Reset(filters)
	e.dispatch(ctx, batch)
	e.refreshStats(ctx)
}

func (e *Engine) loadMore(ctx context.Context) {
	batch, ok := e.coord.LoadMore()
	if !ok {
		return
	}
	e.dispatch(ctx, batch)
}

func (e *Engine) setFilters(ctx context.Context, next model.FilterState) {
	if e.coord.State() == StateIdle {
		e.filters = next
		return
	}
	if e.needsReset(next) {
		e.log.Debugf("Filter change needs a reload")
		e.reset(ctx, next)
		return
	}
	e.filters = next
	e.coord.SetEnabledTypes(next.EnabledSources())
}

// needsReset reports whether next changes what the sources return
func (e *Engine) needsReset(next model.FilterState) bool {
	if !e.coord.SourceFilters().Equal(next.Source()) {
		return true
	}
	for _, t := range next.EnabledSources() {
		if !e.coord.HasCursor(t) {
			return true
		}
	}
	return false
}

func (e *Engine) dispatch(ctx context.Context, batch Batch) {
	if batch.Empty() {
		return
	}
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	fctx, cancel := context.WithCancel(ctx)
	e.cancelFetch = cancel

	e.log.Debugf("Fetching %d pages for epoch %d", len(batch.Requests), batch.Epoch)
	go func() {
		res := e.fetcher.Fetch(fctx, batch)
		select {
		case e.results <- res:
		case <-e.done:
		}
	}()
}

func (e *Engine) handleBatch(res BatchResult) bool {
	out := e.coord.Complete(res)
	if out.Stale {
		return false
	}

	if out.State != StateFailed {
		e.previous = nil
	}
	if n := newNotification(out.Errors, e.now()); n != nil {
		e.lastErr = n
	}
	e.scroll.Rearm()
	return true
}

func (e *Engine) refreshStats(ctx context.Context) {
	if e.cancelStats != nil {
		e.cancelStats()
	}
	e.statsGen++
	gen := e.statsGen
	scope := aggregator.ScopeFor(e.filters)

	e.server.Scope = scope
	e.server.ServerPending = true

	sctx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout)
	e.cancelStats = cancel
	go func() {
		agg, err := e.stats.FetchServer(sctx, scope)
		select {
		case e.statsCh <- statsResult{gen: gen, agg: agg, err: err}:
		case <-e.done:
		}
	}()
}

func (e *Engine) handleStats(res statsResult) bool {
	if res.gen != e.statsGen {
		e.log.Debugf("Discarding aggregate of generation %d (current %d)", res.gen, e.statsGen)
		return false
	}
	e.server.ServerPending = false
	e.server.ServerErr = res.err
	if res.err == nil {
		e.server.Server = res.agg
	}
	return true
}

func (e *Engine) publish() {
	items := e.coord.Items()
	state := e.coord.State()

	display, stale := items, false
	if len(items) == 0 && len(e.previous) > 0 && (state == StateLoading || state == StateFailed) {
		display, stale = e.previous, true
	}

	filtered := e.pipeline.Apply(display, e.filters)

	stats := e.server
	stats.Loaded = aggregator.ComputeLoaded(items)

	e.state.SetView(View{
		Epoch:     e.coord.Epoch(),
		State:     state,
		Processed: e.processed,
		Filters:   e.filters.Clone(),
		Groups:    e.builder.Group(filtered),
		Visible:   len(filtered),
		Loaded:    len(items),
		Stale:     stale,
		Cursors:   e.coord.Cursors(),
		Stats:     stats,
		LastError: e.lastErr,
		UpdatedAt: e.now(),
	})
}
