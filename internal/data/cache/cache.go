package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/util"
)

// CacheMissReason explains why Get found nothing usable
type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonNotFound
	MissReasonError
	MissReasonSourceChanged
	MissReasonExpired
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonNotFound:
		return "not found"
	case MissReasonError:
		return "unreadable"
	case MissReasonSourceChanged:
		return "source changed"
	case MissReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// SubjectSnapshot is the persisted result of one successful listSubjects call
type SubjectSnapshot struct {
	Source    string          `json:"source"`
	Subjects  []model.Subject `json:"subjects"`
	FetchedAt int64           `json:"fetchedAt"` // unix seconds
}

// CacheResult is the outcome of a cache lookup
type CacheResult struct {
	Data       *SubjectSnapshot
	Found      bool
	MissReason CacheMissReason
}

// Cache persists subject lists per data source
type Cache interface {
	Get(source string) CacheResult
	Set(source string, subjects []model.Subject) error
	Clear() error
}

// FileCache stores one JSON file per source under baseDir, fronted by memory
type FileCache struct {
	baseDir     string
	maxAge      time.Duration
	now         func() time.Time
	mu          sync.RWMutex
	memoryCache map[string]*SubjectSnapshot
}

// NewFileCache creates the cache directory. maxAge <= 0 keeps entries forever.
func NewFileCache(baseDir string, maxAge time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileCache{
		baseDir:     baseDir,
		maxAge:      maxAge,
		now:         time.Now,
		memoryCache: make(map[string]*SubjectSnapshot),
	}, nil
}

// cacheKey hashes the source identity (db path or base URL) into a file name
func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:8])
}

func (c *FileCache) path(source string) string {
	return filepath.Join(c.baseDir, "subjects-"+cacheKey(source)+".json")
}

// Get returns the cached subjects for source
func (c *FileCache) Get(source string) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(source)
	if data, ok := c.memoryCache[key]; ok {
		if reason := c.validate(source, data); reason != MissReasonNone {
			delete(c.memoryCache, key)
			return CacheResult{MissReason: reason}
		}
		return CacheResult{Data: data, Found: true}
	}

	raw, err := os.ReadFile(c.path(source))
	if err != nil {
		if os.IsNotExist(err) {
			return CacheResult{MissReason: MissReasonNotFound}
		}
		util.LogDebugf("Subject cache read failed for %s: %v", source, err)
		return CacheResult{MissReason: MissReasonError}
	}

	var data SubjectSnapshot
	if err := sonic.Unmarshal(raw, &data); err != nil {
		util.LogDebugf("Subject cache decode failed for %s: %v", source, err)
		return CacheResult{MissReason: MissReasonError}
	}
	if reason := c.validate(source, &data); reason != MissReasonNone {
		util.LogDebugf("Subject cache invalidated for %s: %s", source, reason)
		return CacheResult{MissReason: reason}
	}

	c.memoryCache[key] = &data
	return CacheResult{Data: &data, Found: true}
}

func (c *FileCache) validate(source string, data *SubjectSnapshot) CacheMissReason {
	if data.Source != source {
		return MissReasonSourceChanged
	}
	if c.maxAge > 0 && c.now().Sub(time.Unix(data.FetchedAt, 0)) > c.maxAge {
		return MissReasonExpired
	}
	return MissReasonNone
}

// Set persists subjects for source, replacing any previous entry
func (c *FileCache) Set(source string, subjects []model.Subject) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := &SubjectSnapshot{
		Source:    source,
		Subjects:  append([]model.Subject{}, subjects...),
		FetchedAt: c.now().Unix(),
	}

	raw, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode subject cache: %w", err)
	}

	// Write to a temp file first so readers never see a partial file
	target := c.path(source)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write subject cache: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write subject cache: %w", err)
	}

	c.memoryCache[cacheKey(source)] = data
	util.LogDebugf("Cached %d subjects for %s", len(subjects), source)
	return nil
}

// Clear drops every cached entry, in memory and on disk
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*SubjectSnapshot)

	matches, err := filepath.Glob(filepath.Join(c.baseDir, "subjects-*.json"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", m, err)
		}
	}
	return nil
}
