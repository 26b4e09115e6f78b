package timeline

import (
	"context"
	"errors"
	"slices"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/core/timeline"
	"github.com/penwyp/go-herdbook/internal/util"
)

// State is the pagination state of the current data epoch
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadingMore
	StateExhausted
	// StateFailed means every source failed on the initial load. It is
	// distinct from a loaded epoch with zero items.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadingMore:
		return "loading-more"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsLoading reports whether a batch is in flight
func (s State) IsLoading() bool {
	return s == StateLoading || s == StateLoadingMore
}

// Cursor tracks the paging position of one source within an epoch
type Cursor struct {
	Source       model.ItemType `json:"source"`
	PageIndex    int            `json:"pageIndex"`
	PageSize     int            `json:"pageSize"`
	Exhausted    bool           `json:"exhausted"`
	RetryPending bool           `json:"retryPending"`
	// AuthBlocked holds the source back until Retry or Reset
	AuthBlocked  bool           `json:"authBlocked"`
}

// PageRequest asks one source for one page
type PageRequest struct {
	Source    model.ItemType
	PageIndex int
	PageSize  int
	Filters   model.SourceFilters
}

// Batch is the set of page requests issued together for one epoch
type Batch struct {
	Epoch    uint64
	Initial  bool
	Requests []PageRequest
}

// Empty reports whether the batch has nothing to fetch
func (b Batch) Empty() bool {
	return len(b.Requests) == 0
}

// PageResult is the outcome of one page request
type PageResult struct {
	Request PageRequest
	Records []any
	Err     error
}

// BatchResult carries every page result of a batch, joined
type BatchResult struct {
	Epoch   uint64
	Results []PageResult
}

// Outcome describes what Complete did with a batch result
type Outcome struct {
	// Stale is set when the result belonged to an older epoch and was ignored
	Stale  bool
	Added  int
	Errors []*model.SourceError
	State  State
}

// Coordinator is the pagination state machine of one timeline.
// It is not safe for concurrent use; the Engine owns it from a single goroutine.
type Coordinator struct {
	pageSize int
	builder  *timeline.TimelineBuilder
	lookup   timeline.SubjectNameLookup
	log      util.LoggerInterface

	epoch   uint64
	state   State
	filters model.SourceFilters
	enabled []model.ItemType
	cursors map[model.ItemType]*Cursor
	items   []model.TimelineItem
}

// NewCoordinator creates an idle coordinator
func NewCoordinator(pageSize int, builder *timeline.TimelineBuilder, lookup timeline.SubjectNameLookup) *Coordinator {
	if lookup == nil {
		lookup = timeline.NoSubjects
	}
	return &Coordinator{
		pageSize: pageSize,
		builder:  builder,
		lookup:   lookup,
		log:      util.Component("coordinator"),
		cursors:  make(map[model.ItemType]*Cursor),
		items:    []model.TimelineItem{},
	}
}

// SetLookup replaces the subject name lookup used for future pages
func (c *Coordinator) SetLookup(lookup timeline.SubjectNameLookup) {
	if lookup == nil {
		lookup = timeline.NoSubjects
	}
	c.lookup = lookup
}

// Reset starts a new epoch: cursors and items are cleared and page 0 is
// requested for every enabled source. Results of older epochs are ignored
// from now on.
func (c *Coordinator) Reset(filters model.FilterState) Batch {
	c.epoch++
	c.filters = filters.Clone().Source()
	c.enabled = filters.EnabledSources()
	c.cursors = make(map[model.ItemType]*Cursor, len(c.enabled))
	c.items = []model.TimelineItem{}

	for _, t := range c.enabled {
		c.cursors[t] = &Cursor{Source: t, PageSize: c.pageSize}
	}

	c.log.Debugf("epoch %d reset with sources %v", c.epoch, c.enabled)

	batch := c.batch(true)
	if batch.Empty() {
		c.state = StateExhausted
		return batch
	}
	c.state = StateLoading
	return batch
}

// LoadMore requests the next page of every enabled, non-exhausted source.
// Returns false without side effects when nothing should be fetched.
func (c *Coordinator) LoadMore() (Batch, bool) {
	switch c.state {
	case StateIdle, StateLoading, StateLoadingMore, StateExhausted:
		return Batch{}, false
	}

	initial := c.state == StateFailed
	batch := c.batch(initial)
	if batch.Empty() {
		if c.allExhausted() {
			c.state = StateExhausted
		}
		return Batch{}, false
	}

	if initial {
		c.state = StateLoading
	} else {
		c.state = StateLoadingMore
	}
	return batch, true
}

// Retry clears auth-blocked cursors and then behaves like LoadMore
func (c *Coordinator) Retry() (Batch, bool) {
	for _, cur := range c.cursors {
		cur.AuthBlocked = false
	}
	return c.LoadMore()
}

func (c *Coordinator) batch(initial bool) Batch {
	batch := Batch{Epoch: c.epoch, Initial: initial}
	for _, t := range c.enabled {
		cur := c.cursors[t]
		if cur == nil || cur.Exhausted || cur.AuthBlocked {
			continue
		}
		batch.Requests = append(batch.Requests, PageRequest{
			Source:    t,
			PageIndex: cur.PageIndex,
			PageSize:  cur.PageSize,
			Filters:   c.filters,
		})
	}
	return batch
}

// Complete integrates a joined batch result. Successful pages are normalized
// and merged even when other sources in the batch failed.
func (c *Coordinator) Complete(res BatchResult) Outcome {
	if res.Epoch != c.epoch || !c.state.IsLoading() {
		c.log.Debugf("discarding batch of epoch %d (current %d, state %s)", res.Epoch, c.epoch, c.state)
		return Outcome{Stale: true, State: c.state}
	}

	results := slices.Clone(res.Results)
	slices.SortStableFunc(results, func(a, b PageResult) int {
		return int(a.Request.Source) - int(b.Request.Source)
	})

	initial := c.state == StateLoading
	out := Outcome{}
	incoming := make([][]model.TimelineItem, 0, len(results))
	succeeded := 0

	for _, r := range results {
		cur := c.cursors[r.Request.Source]
		if cur == nil || r.Request.PageIndex != cur.PageIndex || cur.Exhausted {
			continue
		}

		if r.Err != nil {
			cur.RetryPending = true
			if model.IsAuth(r.Err) {
				cur.AuthBlocked = true
			}
			if errors.Is(r.Err, context.Canceled) {
				continue
			}
			srcErr := &model.SourceError{Source: cur.Source, PageIndex: cur.PageIndex, Err: r.Err}
			out.Errors = append(out.Errors, srcErr)
			c.log.Warnf("epoch %d: %v", c.epoch, srcErr)
			continue
		}

		page := make([]model.TimelineItem, 0, len(r.Records))
		for _, rec := range r.Records {
			if item, ok := timeline.Normalize(rec, c.lookup); ok {
				page = append(page, item)
			}
		}
		incoming = append(incoming, page)
		out.Added += len(page)
		succeeded++

		cur.RetryPending = false
		cur.AuthBlocked = false
		if len(r.Records) < cur.PageSize {
			cur.Exhausted = true
		} else {
			cur.PageIndex++
		}
	}

	if out.Added > 0 {
		c.items = c.builder.Merge(c.items, incoming...)
	}

	switch {
	case c.allExhausted():
		c.state = StateExhausted
	case initial && succeeded == 0 && len(out.Errors) > 0:
		c.state = StateFailed
	default:
		c.state = StateLoaded
	}

	c.log.Debugf("epoch %d: merged %d items (%d total), state %s", c.epoch, out.Added, len(c.items), c.state)
	out.State = c.state
	return out
}

// SetEnabledTypes narrows or widens the sources that LoadMore pages through
// without starting a new epoch. Types without a cursor in this epoch are ignored.
func (c *Coordinator) SetEnabledTypes(types []model.ItemType) {
	enabled := make([]model.ItemType, 0, len(types))
	for _, t := range model.AllItemTypes {
		if slices.Contains(types, t) && c.cursors[t] != nil {
			enabled = append(enabled, t)
		}
	}
	c.enabled = enabled

	switch c.state {
	case StateLoaded, StateExhausted:
		if c.allExhausted() {
			c.state = StateExhausted
		} else {
			c.state = StateLoaded
		}
	}
}

func (c *Coordinator) allExhausted() bool {
	for _, t := range c.enabled {
		if cur := c.cursors[t]; cur != nil && !cur.Exhausted {
			return false
		}
	}
	return true
}

// HasCursor reports whether source t was loaded in the current epoch
func (c *Coordinator) HasCursor(t model.ItemType) bool {
	return c.cursors[t] != nil
}

// Epoch returns the current epoch token
func (c *Coordinator) Epoch() uint64 {
	return c.epoch
}

// State returns the current pagination state
func (c *Coordinator) State() State {
	return c.state
}

// SourceFilters returns the push-down filters of the current epoch
func (c *Coordinator) SourceFilters() model.SourceFilters {
	return c.filters
}

// Items returns the accumulated item list. Callers must not modify it.
func (c *Coordinator) Items() []model.TimelineItem {
	return c.items
}

// Cursors returns a copy of every cursor in source-priority order
func (c *Coordinator) Cursors() []Cursor {
	cursors := make([]Cursor, 0, len(c.cursors))
	for _, t := range model.AllItemTypes {
		if cur := c.cursors[t]; cur != nil {
			cursors = append(cursors, *cur)
		}
	}
	return cursors
}
