package backend

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchTargets_FileBackend(t *testing.T) {
	dataDir := "data"
	dirs, match := watchTargets(StoreBackendFile, dataDir)

	assert.Equal(t, []string{filepath.Join(dataDir, notesDirName), dataDir}, dirs)
	assert.True(t, match(filepath.Join(dataDir, noteOrderFileName)))
	assert.True(t, match(filepath.Join(dataDir, notesDirName, "note-1.json")))
	assert.False(t, match(filepath.Join(dataDir, notesDirName, tempFilePrefix+"123")))
	assert.False(t, match(filepath.Join(dataDir, "settings.json")))
	assert.False(t, match(filepath.Join(dataDir, notesDirName, "readme.txt")))
}

func TestWatchTargets_SQLiteBackend(t *testing.T) {
	dirs, match := watchTargets(StoreBackendSQLite, "data")

	assert.Equal(t, []string{"data"}, dirs)
	assert.True(t, match(filepath.Join("data", sqliteFileName)))
	assert.True(t, match(filepath.Join("data", sqliteFileName+"-wal")))
	assert.False(t, match(filepath.Join("data", "settings.json")))
}

func TestStoreWatcher_DebouncesExternalChanges(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := newStoreWatcher([]string{dir}, func(name string) bool {
		return filepath.Ext(name) == ".json"
	}, func() { calls.Add(1) }, newTestLogger())
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	w.Start(context.Background())
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "note-1.json"), []byte("{}"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStoreWatcher_StopCancelsPendingNotification(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := newStoreWatcher([]string{dir}, nil, func() { calls.Add(1) }, newTestLogger())
	require.NoError(t, err)
	w.debounce = time.Second
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "note-1.json"), []byte("{}"), 0644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Stop())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNewStoreWatcher_MissingDirectory(t *testing.T) {
	_, err := newStoreWatcher([]string{filepath.Join(t.TempDir(), "missing")}, nil, func() {}, newTestLogger())
	assert.Error(t, err)
}
