package model

import (
	"slices"
	"time"
)

// DateRange is an inclusive [Start, End] interval
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDayRange builds a range covering whole calendar days from start to end in loc
func NewDayRange(start, end time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.Local
	}
	s := start.In(loc)
	e := end.In(loc)
	return DateRange{
		Start: time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc),
		End:   time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc),
	}
}

// Contains reports whether t falls inside the range, bounds included
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Equal compares two ranges by instant
func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// SourceFilters is the part of FilterState the remote sources can apply themselves
type SourceFilters struct {
	SubjectID *string
	Category  *string
	DateRange *DateRange
}

// Equal reports whether two push-down filter sets select the same records
func (f SourceFilters) Equal(o SourceFilters) bool {
	return equalStringPtr(f.SubjectID, o.SubjectID) &&
		equalStringPtr(f.Category, o.Category) &&
		equalRangePtr(f.DateRange, o.DateRange)
}

// FilterState is owned by the UI layer and read-only to the engine
type FilterState struct {
	// EnabledTypes limits the visible item types. Empty means all types.
	EnabledTypes []ItemType
	SubjectID    *string
	DateRange    *DateRange
	Category     *string
	SearchText   string
}

// TypeEnabled reports whether items of type t pass the type-membership filter
func (f FilterState) TypeEnabled(t ItemType) bool {
	if len(f.EnabledTypes) == 0 {
		return true
	}
	return slices.Contains(f.EnabledTypes, t)
}

// EnabledSources returns the enabled types in source-priority order
func (f FilterState) EnabledSources() []ItemType {
	sources := make([]ItemType, 0, len(AllItemTypes))
	for _, t := range AllItemTypes {
		if f.TypeEnabled(t) {
			sources = append(sources, t)
		}
	}
	return sources
}

// Source returns the push-down subset of the filter state
func (f FilterState) Source() SourceFilters {
	return SourceFilters{
		SubjectID: f.SubjectID,
		Category:  f.Category,
		DateRange: f.DateRange,
	}
}

// Clone returns a deep copy so callers cannot mutate engine-held state
func (f FilterState) Clone() FilterState {
	c := FilterState{
		EnabledTypes: slices.Clone(f.EnabledTypes),
		SearchText:   f.SearchText,
	}
	if f.SubjectID != nil {
		v := *f.SubjectID
		c.SubjectID = &v
	}
	if f.Category != nil {
		v := *f.Category
		c.Category = &v
	}
	if f.DateRange != nil {
		v := *f.DateRange
		c.DateRange = &v
	}
	return c
}

// RecordQuery is one page request against a remote list endpoint
type RecordQuery struct {
	Offset    int
	Limit     int
	SubjectID *string
	Category  *string
	Start     *time.Time
	End       *time.Time
}

// NewRecordQuery converts push-down filters and a page position into a query
func NewRecordQuery(filters SourceFilters, pageIndex, pageSize int) RecordQuery {
	q := RecordQuery{
		Offset:    pageIndex * pageSize,
		Limit:     pageSize,
		SubjectID: filters.SubjectID,
		Category:  filters.Category,
	}
	if filters.DateRange != nil {
		start, end := filters.DateRange.Start, filters.DateRange.End
		q.Start = &start
		q.End = &end
	}
	return q
}

// AggregateQuery scopes the server-side transaction aggregate
type AggregateQuery struct {
	Start     *time.Time
	End       *time.Time
	SubjectID *string
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalRangePtr(a, b *DateRange) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
