package timeline

import (
	"fmt"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/constants"
)

// EngineConfig contains configuration for the timeline engine
type EngineConfig struct {
	// Pagination
	PageSize          int
	LoadMoreThreshold int

	// Day grouping
	Timezone string

	// Remote calls
	RequestTimeout time.Duration

	// SubjectCacheKey identifies the data source in the subject cache (db path or base URL)
	SubjectCacheKey string
}

// Validate fills defaults and rejects values the engine cannot work with
func (c *EngineConfig) Validate() error {
	if c.PageSize == 0 {
		c.PageSize = constants.DefaultPageSize
	}
	if c.PageSize < 0 || c.PageSize > constants.MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", constants.MaxPageSize, c.PageSize)
	}
	if c.LoadMoreThreshold == 0 {
		c.LoadMoreThreshold = constants.DefaultLoadMoreThreshold
	}
	if c.LoadMoreThreshold < 0 {
		return fmt.Errorf("load-more threshold must not be negative, got %d", c.LoadMoreThreshold)
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = constants.DefaultRequestTimeout
	}
	return nil
}
