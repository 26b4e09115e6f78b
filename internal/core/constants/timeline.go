package constants

import "time"

const (
	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 200

	// Scroll distance (in items) from the end of the list that triggers a load
	DefaultLoadMoreThreshold = 5

	// Day bucket key layout for grouped views
	DayKeyLayout = "2006-01-02"

	// Remote service defaults
	DefaultRequestTimeout = 10 * time.Second
	DefaultListenAddr     = "127.0.0.1:8080"

	// Browser refresh debounce after file changes
	RefreshDebounce = 500 * time.Millisecond
)
