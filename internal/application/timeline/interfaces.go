package timeline

import (
	"context"

	"github.com/penwyp/go-herdbook/internal/core/model"
)

// Controller is the surface the UI layer drives the timeline through
type Controller interface {
	// Reset starts a new epoch with filters
	Reset(filters model.FilterState) Ticket
	// LoadMore requests the next page of every non-exhausted source
	LoadMore() Ticket
	// SetFilters replaces the filter state
	SetFilters(filters model.FilterState) Ticket
	// OnScrollPositionChanged reports the distance from the end of the list
	OnScrollPositionChanged(distanceFromEnd int) Ticket
	// OnRefreshRequested reloads from the first page
	OnRefreshRequested() Ticket
	// DismissError clears the current notification
	DismissError() Ticket
	// Retry re-requests pages that failed
	Retry() Ticket
}

// ViewSource exposes the observable outputs of the timeline
type ViewSource interface {
	// View returns the latest snapshot
	View() View
	// Subscribe returns a channel signalled after each new snapshot
	Subscribe() (<-chan struct{}, func())
	// Await waits until the command behind t is handled and the engine is idle
	Await(ctx context.Context, t Ticket) (View, error)
}

// Timeline is a running timeline the UI can drive and observe
type Timeline interface {
	Controller
	ViewSource
	// Subjects returns the subjects known to the name lookup
	Subjects() []model.Subject
}

var _ Timeline = (*Engine)(nil)
