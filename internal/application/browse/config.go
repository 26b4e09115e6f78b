package browse

import (
	"time"

	"github.com/penwyp/go-herdbook/internal/core/constants"
	"github.com/penwyp/go-herdbook/internal/core/model"
)

// BrowseConfig contains configuration for the interactive browser
type BrowseConfig struct {
	// Filters applied on start
	Filters model.FilterState

	// WatchPath is a local database file whose changes trigger a refresh.
	// Empty disables watching.
	WatchPath       string
	RefreshDebounce time.Duration

	// PageJump is how many items PageUp/PageDown move
	PageJump int
}

// Validate fills defaults
func (c *BrowseConfig) Validate() error {
	if c.RefreshDebounce == 0 {
		c.RefreshDebounce = constants.RefreshDebounce
	}
	if c.PageJump <= 0 {
		c.PageJump = 10
	}
	return nil
}
