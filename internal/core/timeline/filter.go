package timeline

import (
	"strings"

	"github.com/penwyp/go-herdbook/internal/core/model"
)

// FilterPass is one predicate stage of the pipeline.
// Active reports whether the pass applies for the given filter state.
type FilterPass struct {
	Name   string
	Active func(f model.FilterState) bool
	Keep   func(item model.TimelineItem, f model.FilterState) bool
}

// FilterPipeline applies its passes in order; each pass only narrows the set
type FilterPipeline struct {
	passes []FilterPass
}

// NewFilterPipeline returns the standard pipeline: type, subject, category,
// date range, then text search
func NewFilterPipeline() *FilterPipeline {
	return &FilterPipeline{
		passes: []FilterPass{
			{
				Name:   "type",
				Active: func(f model.FilterState) bool { return len(f.EnabledTypes) > 0 },
				Keep: func(item model.TimelineItem, f model.FilterState) bool {
					return f.TypeEnabled(item.Type)
				},
			},
			{
				Name:   "subject",
				Active: func(f model.FilterState) bool { return f.SubjectID != nil },
				Keep: func(item model.TimelineItem, f model.FilterState) bool {
					return item.SubjectID != nil && *item.SubjectID == *f.SubjectID
				},
			},
			{
				Name:   "category",
				Active: func(f model.FilterState) bool { return f.Category != nil },
				Keep: func(item model.TimelineItem, f model.FilterState) bool {
					return item.Category == *f.Category
				},
			},
			{
				Name:   "date_range",
				Active: func(f model.FilterState) bool { return f.DateRange != nil },
				Keep: func(item model.TimelineItem, f model.FilterState) bool {
					return f.DateRange.Contains(item.Date)
				},
			},
			{
				Name:   "search",
				Active: func(f model.FilterState) bool { return strings.TrimSpace(f.SearchText) != "" },
				Keep: func(item model.TimelineItem, f model.FilterState) bool {
					return MatchesSearch(item, f.SearchText)
				},
			},
		},
	}
}

// Passes returns the pass names in application order
func (p *FilterPipeline) Passes() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name
	}
	return names
}

// Apply returns the items that survive every active pass, in input order.
// The input slice is never modified.
func (p *FilterPipeline) Apply(items []model.TimelineItem, filters model.FilterState) []model.TimelineItem {
	result := make([]model.TimelineItem, len(items))
	copy(result, items)

	for _, pass := range p.passes {
		if !pass.Active(filters) {
			continue
		}
		kept := make([]model.TimelineItem, 0, len(result))
		for _, item := range result {
			if pass.Keep(item, filters) {
				kept = append(kept, item)
			}
		}
		result = kept
	}

	return result
}

// MatchesSearch reports whether the case-insensitive query occurs in the
// title, the description, or any tag
func MatchesSearch(item model.TimelineItem, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Description), q) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
