package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, typ model.ItemType, date time.Time) model.TimelineItem {
	return model.TimelineItem{ID: id, Type: typ, Date: date, Title: id, Tags: []string{}}
}

func ids(items []model.TimelineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestNewTimelineBuilder(t *testing.T) {
	t.Run("valid timezone", func(t *testing.T) {
		tb := NewTimelineBuilder("America/New_York")
		assert.Equal(t, "America/New_York", tb.Location().String())
	})

	t.Run("invalid timezone falls back to local", func(t *testing.T) {
		tb := NewTimelineBuilder("Not/AZone")
		assert.Equal(t, time.Local, tb.Location())
	})
}

func TestMerge_SortsDescending(t *testing.T) {
	tb := NewTimelineBuilder("UTC")
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	activities := []model.TimelineItem{
		item("a1", model.ItemActivity, base.Add(-1*time.Hour)),
		item("a2", model.ItemActivity, base.Add(-5*time.Hour)),
	}
	transactions := []model.TimelineItem{
		item("t1", model.ItemTransaction, base),
		item("t2", model.ItemTransaction, base.Add(-3*time.Hour)),
	}

	merged := tb.Merge(nil, activities, transactions)

	assert.Equal(t, []string{"t1", "a1", "t2", "a2"}, ids(merged))
	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i].Date.After(merged[i-1].Date), "list must be date descending")
	}
}

func TestMerge_TieBreakKeepsSourceThenInsertionOrder(t *testing.T) {
	tb := NewTimelineBuilder("UTC")
	ts := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	existing := []model.TimelineItem{item("old", model.ItemTransaction, ts)}
	activities := []model.TimelineItem{item("a1", model.ItemActivity, ts), item("a2", model.ItemActivity, ts)}
	transactions := []model.TimelineItem{item("t1", model.ItemTransaction, ts)}

	merged := tb.Merge(existing, activities, transactions)
	assert.Equal(t, []string{"old", "a1", "a2", "t1"}, ids(merged))

	// Same inputs give the same output
	again := tb.Merge(existing, activities, transactions)
	assert.Equal(t, ids(merged), ids(again))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	tb := NewTimelineBuilder("UTC")
	ts := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	existing := []model.TimelineItem{item("x", model.ItemActivity, ts.Add(-time.Hour))}
	batch := []model.TimelineItem{item("y", model.ItemActivity, ts)}

	merged := tb.Merge(existing, batch)
	require.Len(t, merged, 2)
	assert.Equal(t, "x", existing[0].ID)
	assert.Equal(t, "y", batch[0].ID)
}

func TestGroup(t *testing.T) {
	tb := NewTimelineBuilder("UTC")
	day1 := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	items := tb.Merge(nil, []model.TimelineItem{
		item("d1-morning", model.ItemActivity, day1.Add(9*time.Hour)),
		item("d2-night", model.ItemActivity, day2.Add(23*time.Hour)),
		item("d1-evening", model.ItemTransaction, day1.Add(20*time.Hour)),
		item("d2-morning", model.ItemTransaction, day2.Add(1*time.Hour)),
	})

	groups := tb.Group(items)
	require.Len(t, groups, 2)

	assert.Equal(t, "2024-05-11", groups[0].Key)
	assert.Equal(t, []string{"d2-night", "d2-morning"}, ids(groups[0].Items))
	assert.Equal(t, "2024-05-10", groups[1].Key)
	assert.Equal(t, []string{"d1-evening", "d1-morning"}, ids(groups[1].Items))
}

func TestGroup_Completeness(t *testing.T) {
	tb := NewTimelineBuilder("UTC")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var batch []model.TimelineItem
	for i := 0; i < 50; i++ {
		batch = append(batch, item(fmt.Sprintf("i%02d", i), model.ItemActivity, base.Add(time.Duration(i*7)*time.Hour)))
	}
	items := tb.Merge(nil, batch)
	groups := tb.Group(items)

	seen := make(map[string]int)
	var flattened []model.TimelineItem
	for _, g := range groups {
		for _, it := range g.Items {
			seen[it.ID]++
			_, key := tb.DayKey(it.Date)
			assert.Equal(t, g.Key, key)
		}
		flattened = append(flattened, g.Items...)
	}

	assert.Len(t, seen, len(items))
	for id, n := range seen {
		assert.Equal(t, 1, n, "item %s must appear in exactly one group", id)
	}
	// Groups are descending and items already date-descending, so the
	// concatenation equals the filtered list
	assert.Equal(t, ids(items), ids(flattened))
}

func TestGroup_UsesBuilderTimezone(t *testing.T) {
	tb := NewTimelineBuilder("Asia/Tokyo")
	// 2024-05-10 20:00 UTC is 2024-05-11 05:00 in Tokyo
	it := item("x", model.ItemActivity, time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC))

	groups := tb.Group([]model.TimelineItem{it})
	require.Len(t, groups, 1)
	assert.Equal(t, "2024-05-11", groups[0].Key)
}

func TestGroup_Empty(t *testing.T) {
	tb := NewTimelineBuilder("UTC")
	groups := tb.Group(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}
