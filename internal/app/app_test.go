package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopreel/loopreel/internal/config"
)

func TestMakeBackoffDoublesUpToMax(t *testing.T) {
	backoff := makeBackoff(100*time.Millisecond, 500*time.Millisecond)

	require.Equal(t, 100*time.Millisecond, backoff(1))
	require.Equal(t, 200*time.Millisecond, backoff(2))
	require.Equal(t, 400*time.Millisecond, backoff(3))
	require.Equal(t, 500*time.Millisecond, backoff(4))
	require.Equal(t, 500*time.Millisecond, backoff(5))
}

func writeConfigFile(t *testing.T, dir string) string {
	t.Helper()
	libraryDir := filepath.Join(dir, "library")
	require.NoError(t, os.MkdirAll(libraryDir, 0o755))

	path := filepath.Join(dir, "config.yaml")
	content := "directories:\n  - " + libraryDir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewWithoutPersistedStateStartsWithEmptyQueue(t *testing.T) {
	cacheDir := t.TempDir()
	tempDir := t.TempDir()

	holder, err := config.NewHolder(writeConfigFile(t, cacheDir))
	require.NoError(t, err)

	a, err := New(holder, Options{CacheDir: cacheDir, TempDir: tempDir, StateBackend: "json"})
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, 0, a.queue.Size())
}

func TestSchedulerTasksOnIndexDeltaExceededClearsQueueAndDiscardsSnapshot(t *testing.T) {
	cacheDir := t.TempDir()
	tempDir := t.TempDir()

	holder, err := config.NewHolder(writeConfigFile(t, cacheDir))
	require.NoError(t, err)

	a, err := New(holder, Options{CacheDir: cacheDir, TempDir: tempDir, StateBackend: "json"})
	require.NoError(t, err)

	require.NoError(t, a.saveState(nil))
	snap, found, err := a.store.Load()
	require.NoError(t, err)
	require.True(t, found)
	require.NotEmpty(t, snap.ConfigHash)

	tasks := a.schedulerTasks()
	tasks.OnIndexDeltaExceeded()

	_, found, err = a.store.Load()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 0, a.queue.Size())
}
