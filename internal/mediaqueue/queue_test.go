package mediaqueue

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/transcoder"
	"github.com/loopreel/loopreel/internal/videoindex"
)

type stubPicker struct{}

func (stubPicker) GetRandomVideo(seasonal []config.SeasonalDirectoryConfig, exclude map[string]bool, now time.Time, rng *rand.Rand) (videoindex.VideoEntry, bool) {
	return videoindex.VideoEntry{}, false
}

func newTestArtifact(t *testing.T, tempDir, name string) *transcoder.ProcessedArtifact {
	t.Helper()
	path := filepath.Join(tempDir, name)
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	return &transcoder.ProcessedArtifact{
		VideoEntry:    videoindex.VideoEntry{OriginalPath: "/src/" + name, Filename: name},
		ProcessedPath: path,
		VideoID:       name,
	}
}

func newTestQueue(target int) *Queue {
	return New(stubPicker{}, nil, config.AudioConfig{}, config.PerformanceConfig{}, time.Minute, "/tmp", target)
}

func TestQueueSizeBoundAfterGetNext(t *testing.T) {
	dir := t.TempDir()
	q := newTestQueue(3)
	q.items = append(q.items, newTestArtifact(t, dir, "a.mp4"), newTestArtifact(t, dir, "b.mp4"))

	_, ok := q.GetNext()
	require.True(t, ok)
	require.Equal(t, 1, q.Size())
}

func TestGetNextSkipsMissingFilesUpToRetryLimit(t *testing.T) {
	dir := t.TempDir()
	q := newTestQueue(3)
	missing := &transcoder.ProcessedArtifact{ProcessedPath: filepath.Join(dir, "gone.mp4"), VideoID: "gone"}
	valid := newTestArtifact(t, dir, "valid.mp4")
	q.items = append(q.items, missing, valid)

	artifact, ok := q.GetNext()
	require.True(t, ok)
	require.Equal(t, "valid.mp4", artifact.Filename)
	require.Equal(t, 0, q.Size())
}

func TestGetNextEmptyQueueReturnsFalse(t *testing.T) {
	q := newTestQueue(3)
	_, ok := q.GetNext()
	require.False(t, ok)
}

func TestValidateEveryRemainingEntryFileExists(t *testing.T) {
	dir := t.TempDir()
	q := newTestQueue(3)
	missing := &transcoder.ProcessedArtifact{ProcessedPath: filepath.Join(dir, "gone.mp4"), VideoID: "gone"}
	valid := newTestArtifact(t, dir, "valid.mp4")
	q.items = append(q.items, missing, valid)

	removed := q.Validate()
	require.Equal(t, 1, removed)
	require.Equal(t, 1, q.Size())
	for _, a := range q.items {
		_, err := os.Stat(a.ProcessedPath)
		require.NoError(t, err)
	}
}

func TestClearDeletesFilesAndEmptiesQueue(t *testing.T) {
	dir := t.TempDir()
	q := newTestQueue(3)
	a := newTestArtifact(t, dir, "a.mp4")
	q.items = append(q.items, a)

	q.Clear()
	require.Equal(t, 0, q.Size())
	_, err := os.Stat(a.ProcessedPath)
	require.True(t, os.IsNotExist(err))
}

func TestQueuedOriginalPathsReflectsCurrentEntries(t *testing.T) {
	dir := t.TempDir()
	q := newTestQueue(3)
	q.items = append(q.items, newTestArtifact(t, dir, "a.mp4"))

	paths := q.QueuedOriginalPaths()
	require.True(t, paths["/src/a.mp4"])
	require.Len(t, paths, 1)
}
