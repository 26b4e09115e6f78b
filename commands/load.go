package commands

import (
	"context"

	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/presentation/formatter"
	"github.com/penwyp/go-herdbook/internal/util"
)

// loadPages resets tl to filters and keeps loading until pages pages are in,
// the sources are exhausted, or a fetch fails. all ignores pages.
func loadPages(ctx context.Context, tl timeline.Timeline, filters model.FilterState, pages int, all bool) (timeline.View, error) {
	view, err := tl.Await(ctx, tl.Reset(filters))
	if err != nil {
		return view, err
	}

	for loaded := 1; all || loaded < pages; loaded++ {
		if view.LastError != nil || !view.HasMore() {
			break
		}
		next, err := tl.Await(ctx, tl.LoadMore())
		if err != nil {
			return view, err
		}
		view = next
	}

	util.LogDebugf("Loaded %d items (%d visible), state %s", view.Loaded, view.Visible, view.State)
	return view, nil
}

func reportOf(v timeline.View) formatter.Report {
	return formatter.Report{
		Groups:  v.Groups,
		Stats:   v.Stats,
		HasMore: v.HasMore() && v.LastError == nil,
		Stale:   v.Stale,
		Notice:  v.LastError.Message(),
		Now:     util.GetTimeProvider().Now(),
	}
}
