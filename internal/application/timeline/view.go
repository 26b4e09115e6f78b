package timeline

import (
	"errors"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/core/timeline"
	"github.com/penwyp/go-herdbook/internal/data/aggregator"
)

// Ticket identifies an enqueued engine command
type Ticket uint64

// NotificationKind classifies a non-fatal error shown to the user
type NotificationKind int

const (
	NotifyNetwork NotificationKind = iota
	NotifyAuth
	NotifyOther
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyNetwork:
		return "network"
	case NotifyAuth:
		return "auth"
	default:
		return "other"
	}
}

// Notification is a dismissible, non-fatal error
type Notification struct {
	Err     error
	Kind    NotificationKind
	Sources []model.ItemType
	// Retryable is false for auth failures, which need a new session first
	Retryable bool
	At        time.Time
}

// Message returns the text shown in the notification banner
func (n *Notification) Message() string {
	if n == nil || n.Err == nil {
		return ""
	}
	switch n.Kind {
	case NotifyAuth:
		return "Session expired, sign in again: " + n.Err.Error()
	case NotifyNetwork:
		return "Could not reach the server: " + n.Err.Error()
	default:
		return n.Err.Error()
	}
}

func newNotification(errs []*model.SourceError, at time.Time) *Notification {
	if len(errs) == 0 {
		return nil
	}

	n := &Notification{Kind: NotifyNetwork, At: at}
	joined := make([]error, 0, len(errs))
	for _, e := range errs {
		n.Sources = append(n.Sources, e.Source)
		joined = append(joined, e)
		if model.IsAuth(e) {
			n.Kind = NotifyAuth
		} else if !model.IsNetwork(e) && n.Kind == NotifyNetwork {
			n.Kind = NotifyOther
		}
	}
	n.Retryable = n.Kind != NotifyAuth
	if len(joined) == 1 {
		n.Err = joined[0]
	} else {
		n.Err = errors.Join(joined...)
	}
	return n
}

// View is a read-only snapshot of everything the UI renders
type View struct {
	Epoch uint64
	State State
	// Processed is the ticket of the last command the engine handled
	Processed Ticket

	Filters model.FilterState
	Groups  []timeline.DayGroup
	// Visible is the number of items in Groups
	Visible int
	// Loaded is the size of the accumulated, unfiltered list
	Loaded int
	// Stale is set while Groups show the previous epoch's data
	Stale bool

	Cursors   []Cursor
	Stats     aggregator.Snapshot
	LastError *Notification
	UpdatedAt time.Time
}

// Items flattens Groups back into the filtered list
func (v View) Items() []model.TimelineItem {
	items := make([]model.TimelineItem, 0, v.Visible)
	for _, g := range v.Groups {
		items = append(items, g.Items...)
	}
	return items
}

// Settled reports whether no page or aggregate request is in flight
func (v View) Settled() bool {
	return !v.State.IsLoading() && !v.Stats.ServerPending
}

// HasMore reports whether LoadMore could fetch anything
func (v View) HasMore() bool {
	return v.State == StateLoaded || v.State == StateFailed
}
