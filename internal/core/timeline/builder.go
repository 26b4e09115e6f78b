package timeline

import (
	"sort"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/constants"
	"github.com/penwyp/go-herdbook/internal/core/model"
)

// TimelineBuilder merges normalized items and buckets them into calendar days
type TimelineBuilder struct {
	timezone *time.Location
}

// NewTimelineBuilder creates a new timeline builder
func NewTimelineBuilder(timezone string) *TimelineBuilder {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return &TimelineBuilder{
		timezone: loc,
	}
}

// Location returns the timezone used for day bucketing
func (tb *TimelineBuilder) Location() *time.Location {
	return tb.timezone
}

// Merge appends the incoming batches to existing (in argument order) and
// re-sorts the whole list by date descending. The sort is stable, so equal
// dates keep insertion order: earlier items first, then batch order.
func (tb *TimelineBuilder) Merge(existing []model.TimelineItem, incoming ...[]model.TimelineItem) []model.TimelineItem {
	totalSize := len(existing)
	for _, batch := range incoming {
		totalSize += len(batch)
	}

	merged := make([]model.TimelineItem, 0, totalSize)
	merged = append(merged, existing...)
	for _, batch := range incoming {
		merged = append(merged, batch...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	return merged
}

// DayKey truncates t to its calendar day in the builder's timezone
func (tb *TimelineBuilder) DayKey(t time.Time) (time.Time, string) {
	local := t.In(tb.timezone)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tb.timezone)
	return day, day.Format(constants.DayKeyLayout)
}

// Group buckets items by calendar day. Groups are ordered by day descending
// and items keep their relative order from the input.
func (tb *TimelineBuilder) Group(items []model.TimelineItem) []DayGroup {
	if len(items) == 0 {
		return []DayGroup{}
	}

	index := make(map[string]int)
	groups := make([]DayGroup, 0)

	for _, item := range items {
		day, key := tb.DayKey(item.Date)
		idx, ok := index[key]
		if !ok {
			idx = len(groups)
			index[key] = idx
			groups = append(groups, DayGroup{Day: day, Key: key})
		}
		groups[idx].Items = append(groups[idx].Items, item)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Day.After(groups[j].Day)
	})

	return groups
}
