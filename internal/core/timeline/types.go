package timeline

import (
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
)

// SubjectNameLookup resolves a subject id to its display name.
// Implementations must be total: unknown ids return ("", false), never panic.
type SubjectNameLookup func(subjectID string) (string, bool)

// DayGroup holds the items that fall on one calendar day
type DayGroup struct {
	Day   time.Time            `json:"day"` // midnight in the builder's timezone
	Key   string               `json:"key"` // Day formatted as 2006-01-02
	Items []model.TimelineItem `json:"items"`
}

// NoSubjects is a lookup that knows no subjects
func NoSubjects(string) (string, bool) {
	return "", false
}
