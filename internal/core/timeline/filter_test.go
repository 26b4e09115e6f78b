package timeline

import (
	"testing"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func sampleItems() []model.TimelineItem {
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return []model.TimelineItem{
		{ID: "1", Type: model.ItemActivity, Date: base, Title: "Spring vaccination", Description: "Clostridial booster", Category: "vaccination", Tags: []string{"herd"}, SubjectID: strp("cow-1")},
		{ID: "2", Type: model.ItemTransaction, Date: base.Add(-24 * time.Hour), Title: "Feed order", Description: "USD 120.00 · feed", Category: "feed", Tags: []string{"hay"}, SubjectID: strp("cow-2")},
		{ID: "3", Type: model.ItemActivity, Date: base.Add(-48 * time.Hour), Title: "Hoof trim", Description: "Front left", Category: "health", Tags: []string{}, SubjectID: strp("cow-1")},
		{ID: "4", Type: model.ItemTransaction, Date: base.Add(-72 * time.Hour), Title: "Vet visit", Description: "USD 80.00 · veterinary", Category: "veterinary", Tags: []string{"Vaccine"}},
	}
}

func TestFilterPipeline_PassOrder(t *testing.T) {
	p := NewFilterPipeline()
	assert.Equal(t, []string{"type", "subject", "category", "date_range", "search"}, p.Passes())
}

func TestFilterPipeline_Apply(t *testing.T) {
	items := sampleItems()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filters  model.FilterState
		expected []string
	}{
		{
			name:     "no filters keeps everything in order",
			filters:  model.FilterState{},
			expected: []string{"1", "2", "3", "4"},
		},
		{
			name:     "type membership",
			filters:  model.FilterState{EnabledTypes: []model.ItemType{model.ItemTransaction}},
			expected: []string{"2", "4"},
		},
		{
			name:     "subject equality drops items without subject",
			filters:  model.FilterState{SubjectID: strp("cow-1")},
			expected: []string{"1", "3"},
		},
		{
			name:     "category equality",
			filters:  model.FilterState{Category: strp("feed")},
			expected: []string{"2"},
		},
		{
			name: "date range is inclusive on both ends",
			filters: model.FilterState{DateRange: &model.DateRange{
				Start: base.Add(-48 * time.Hour),
				End:   base.Add(-24 * time.Hour),
			}},
			expected: []string{"2", "3"},
		},
		{
			name:     "search is case insensitive",
			filters:  model.FilterState{SearchText: "HOOF"},
			expected: []string{"3"},
		},
		{
			name:     "combined passes narrow",
			filters:  model.FilterState{EnabledTypes: []model.ItemType{model.ItemActivity}, SubjectID: strp("cow-1"), SearchText: "vacc"},
			expected: []string{"1"},
		},
		{
			name:     "whitespace search is inactive",
			filters:  model.FilterState{SearchText: "   "},
			expected: []string{"1", "2", "3", "4"},
		},
	}

	p := NewFilterPipeline()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(p.Apply(items, tt.filters)))
		})
	}
}

func TestFilterPipeline_SearchMatchesDescriptionOrTag(t *testing.T) {
	items := []model.TimelineItem{
		{ID: "desc", Title: "Round-up", Description: "Annual vaccine day", Tags: []string{}},
		{ID: "tag", Title: "Vet visit", Description: "Checkup", Tags: []string{"vaccine"}},
		{ID: "none", Title: "Fence repair", Description: "North paddock", Tags: []string{"maintenance"}},
	}

	result := NewFilterPipeline().Apply(items, model.FilterState{SearchText: "vaccine"})
	assert.Equal(t, []string{"desc", "tag"}, ids(result))
}

func TestFilterPipeline_Idempotent(t *testing.T) {
	items := sampleItems()
	filters := model.FilterState{SearchText: "v", EnabledTypes: []model.ItemType{model.ItemActivity, model.ItemTransaction}}
	p := NewFilterPipeline()

	first := p.Apply(items, filters)
	second := p.Apply(items, filters)
	assert.Equal(t, first, second)

	// Input is untouched
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(items))
}
