package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
)

// SubjectDirectory is an in-memory id -> subject index used to resolve
// display names while normalizing timeline items
type SubjectDirectory struct {
	mu       sync.RWMutex
	entries  map[string]model.Subject
	loadedAt time.Time
	stale    bool // entries came from a persisted copy, not a live listing
}

// NewSubjectDirectory creates an empty directory
func NewSubjectDirectory() *SubjectDirectory {
	return &SubjectDirectory{
		entries: make(map[string]model.Subject),
	}
}

// Replace swaps the whole directory contents in one step
func (d *SubjectDirectory) Replace(subjects []model.Subject, stale bool) {
	entries := make(map[string]model.Subject, len(subjects))
	for _, s := range subjects {
		if s.ID == "" {
			continue
		}
		entries[s.ID] = s
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = entries
	d.loadedAt = time.Now()
	d.stale = stale
}

// Lookup returns the display name for a subject id. It never fails:
// unknown ids return ("", false).
func (d *SubjectDirectory) Lookup(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.entries[id]
	if !ok {
		return "", false
	}
	if s.Name == "" {
		return s.Tag, s.Tag != ""
	}
	return s.Name, true
}

// Get returns the full subject record
func (d *SubjectDirectory) Get(id string) (model.Subject, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.entries[id]
	return s, ok
}

// FindByName returns the first subject whose name or tag equals name
func (d *SubjectDirectory) FindByName(name string) (model.Subject, bool) {
	for _, s := range d.Subjects() {
		if s.Name == name || s.Tag == name {
			return s, true
		}
	}
	return model.Subject{}, false
}

// Subjects returns all subjects sorted by name
func (d *SubjectDirectory) Subjects() []model.Subject {
	d.mu.RLock()
	defer d.mu.RUnlock()

	subjects := make([]model.Subject, 0, len(d.entries))
	for _, s := range d.entries {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Name != subjects[j].Name {
			return subjects[i].Name < subjects[j].Name
		}
		return subjects[i].ID < subjects[j].ID
	})
	return subjects
}

// Len returns the number of known subjects
func (d *SubjectDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// IsStale reports whether the directory was filled from a persisted copy
func (d *SubjectDirectory) IsStale() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stale
}

// LoadedAt returns when the directory was last replaced
func (d *SubjectDirectory) LoadedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadedAt
}
