package util

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/constants"
)

// TimeProvider resolves calendar days and user-facing dates in one configured timezone
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	providerMu         sync.Mutex
)

// InitializeTimeProvider replaces the global provider. On error the previous provider is kept.
func InitializeTimeProvider(timezone string) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	provider := &TimeProvider{}
	if err := provider.SetTimezone(timezone); err != nil {
		return err
	}
	globalTimeProvider = provider
	return nil
}

// GetTimeProvider returns the global provider, defaulting to Local
func GetTimeProvider() *TimeProvider {
	providerMu.Lock()
	defer providerMu.Unlock()
	if globalTimeProvider == nil {
		globalTimeProvider = &TimeProvider{location: time.Local}
	}
	return globalTimeProvider
}

// SetTimezone updates the timezone used for day boundaries
func (tp *TimeProvider) SetTimezone(timezone string) error {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return err
	}
	tp.mu.Lock()
	tp.location = loc
	tp.mu.Unlock()
	return nil
}

// LoadLocation resolves "", "Local" or an IANA zone name
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || strings.EqualFold(timezone, "Local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/Chicago, Europe/Dublin, Australia/Brisbane", timezone, err)
	}
	return loc, nil
}

// Location returns the configured timezone
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Now returns the current time in the configured timezone
func (tp *TimeProvider) Now() time.Time {
	return time.Now().In(tp.Location())
}

// In converts a time to the configured timezone
func (tp *TimeProvider) In(t time.Time) time.Time {
	return t.In(tp.Location())
}

// Format formats t in the configured timezone
func (tp *TimeProvider) Format(t time.Time, layout string) string {
	return t.In(tp.Location()).Format(layout)
}

// StartOfDay returns local midnight of the calendar day containing t
func (tp *TimeProvider) StartOfDay(t time.Time) time.Time {
	loc := tp.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD day in the configured timezone
func (tp *TimeProvider) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DayKeyLayout, strings.TrimSpace(s), tp.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s': expected YYYY-MM-DD", s)
	}
	return t, nil
}
