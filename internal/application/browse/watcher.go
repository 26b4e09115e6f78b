package browse

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-herdbook/internal/util"
)

// FileWatcher reports debounced changes to one database file. SQLite writes
// through the -wal and -journal side files, so those count as changes too.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	changes  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	lastInfo *util.FileInfo
}

// NewFileWatcher watches the directory holding path
func NewFileWatcher(path string, debounce time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		path:     filepath.Clean(path),
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	if info, err := util.GetFileInfo(fw.path); err == nil {
		fw.lastInfo = info
	}

	go fw.processEvents()

	return fw, nil
}

// relevant reports whether an event touches the database or its side files
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == fw.path || strings.HasPrefix(name, fw.path+"-")
}

func (fw *FileWatcher) processEvents() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-fw.stop:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			util.LogDebugf("Database file event: %s (%s)", event.Name, event.Op)
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(fw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if fw.changedSinceLast() {
				select {
				case fw.changes <- struct{}{}:
				default:
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// changedSinceLast compares the main file and its WAL against the last snapshot
func (fw *FileWatcher) changedSinceLast() bool {
	info, err := util.GetFileInfo(fw.path)
	if err != nil {
		// Removed or unreadable: let the engine find out
		fw.lastInfo = nil
		return true
	}
	if wal, err := util.GetFileInfo(fw.path + "-wal"); err == nil {
		if wal.ModTime > info.ModTime {
			info.ModTime = wal.ModTime
		}
		info.Size += wal.Size
	}

	changed := fw.lastInfo == nil || fw.lastInfo.Changed(info)
	fw.lastInfo = info
	return changed
}

// Changes is signalled once per debounced burst of writes
func (fw *FileWatcher) Changes() <-chan struct{} {
	return fw.changes
}

// Close stops watching
func (fw *FileWatcher) Close() error {
	fw.stopOnce.Do(func() { close(fw.stop) })
	return fw.watcher.Close()
}
