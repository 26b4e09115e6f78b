package browse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_Relevant(t *testing.T) {
	fw := &FileWatcher{path: filepath.Clean("/data/herd.db")}

	assert.True(t, fw.relevant(fsnotify.Event{Name: "/data/herd.db", Op: fsnotify.Write}))
	assert.True(t, fw.relevant(fsnotify.Event{Name: "/data/herd.db-wal", Op: fsnotify.Write}))
	assert.True(t, fw.relevant(fsnotify.Event{Name: "/data/herd.db-journal", Op: fsnotify.Create}))
	assert.False(t, fw.relevant(fsnotify.Event{Name: "/data/herd.db", Op: fsnotify.Chmod}))
	assert.False(t, fw.relevant(fsnotify.Event{Name: "/data/other.db", Op: fsnotify.Write}))
	assert.False(t, fw.relevant(fsnotify.Event{Name: "/data/herd.dbx", Op: fsnotify.Write}))
}

func TestFileWatcher_SignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "herd.db")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fw, err := NewFileWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(path, []byte("version two"), 0o644))

	select {
	case <-fw.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestFileWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "herd.db")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fw, err := NewFileWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-fw.Changes():
		t.Fatal("unexpected change notification")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "herd.db"), time.Millisecond)
	assert.Error(t, err)
}

func TestFileWatcher_CloseTwice(t *testing.T) {
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "herd.db"), time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	assert.NotPanics(t, func() { _ = fw.Close() })
}
