package statestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/metadata"
	"github.com/loopreel/loopreel/internal/transcoder"
	"github.com/loopreel/loopreel/internal/videoindex"
)

func artifactAt(dir, name string) transcoder.ProcessedArtifact {
	original := filepath.Join(dir, "orig_"+name+".mp4")
	processed := filepath.Join(dir, "processed_"+name+".mp4")
	var a transcoder.ProcessedArtifact
	a.VideoEntry = videoindex.VideoEntry{OriginalPath: original, Filename: name + ".mp4"}
	a.ProcessedPath = processed
	return a
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestJSONBackendSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewJSONBackend(dir)
	require.NoError(t, err)

	snap := Snapshot{SavedAt: time.Now(), ConfigHash: "abc", Stats: Stats{TotalVideos: 3}}
	require.NoError(t, backend.Save(snap))

	loaded, ok, err := backend.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", loaded.ConfigHash)
	require.Equal(t, 3, loaded.Stats.TotalVideos)
}

func TestJSONBackendLoadMissingReturnsNotFound(t *testing.T) {
	backend, err := NewJSONBackend(t.TempDir())
	require.NoError(t, err)

	_, ok, err := backend.Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenUnknownBackendErrors(t *testing.T) {
	_, err := Open("carrier-pigeon", t.TempDir())
	require.Error(t, err)
}

func TestOpenDefaultsToJSON(t *testing.T) {
	backend, err := Open("", t.TempDir())
	require.NoError(t, err)
	require.IsType(t, &jsonBackend{}, backend)
}

func TestRestoreRejectsConfigHashMismatch(t *testing.T) {
	snap := &Snapshot{ConfigHash: "old"}
	_, ok := Restore(snap, "new")
	require.False(t, ok)
}

func TestRestoreNilSnapshotRejected(t *testing.T) {
	_, ok := Restore(nil, "anything")
	require.False(t, ok)
}

func TestRestoreKeepsOnlyArtifactsWithBothFiles(t *testing.T) {
	dir := t.TempDir()

	complete := artifactAt(dir, "complete")
	writeFile(t, complete.OriginalPath)
	writeFile(t, complete.ProcessedPath)

	missingProcessed := artifactAt(dir, "missing-processed")
	writeFile(t, missingProcessed.OriginalPath)

	missingOriginal := artifactAt(dir, "missing-original")
	writeFile(t, missingOriginal.ProcessedPath)

	snap := &Snapshot{
		ConfigHash:    "h",
		CombinedQueue: []transcoder.ProcessedArtifact{complete, missingProcessed, missingOriginal},
	}

	restored, ok := Restore(snap, "h")
	require.True(t, ok)
	require.Len(t, restored.Queue, 1)
	require.Equal(t, complete.OriginalPath, restored.Queue[0].OriginalPath)

	// the orphaned processed file (no matching original) is deleted
	require.NoFileExists(t, missingOriginal.ProcessedPath)
}

func TestRestoreRecomputesMissingCrossfadeTiming(t *testing.T) {
	dir := t.TempDir()
	a := artifactAt(dir, "cf")
	writeFile(t, a.OriginalPath)
	writeFile(t, a.ProcessedPath)
	duration := 30.0
	a.Metadata = &metadata.Metadata{Duration: &duration}

	snap := &Snapshot{ConfigHash: "h", CombinedQueue: []transcoder.ProcessedArtifact{a}}
	restored, ok := Restore(snap, "h")
	require.True(t, ok)
	require.Len(t, restored.Queue, 1)
	require.NotNil(t, restored.Queue[0].CrossfadeTiming)
}

func TestRestorePreservesExistingCrossfadeTiming(t *testing.T) {
	dir := t.TempDir()
	a := artifactAt(dir, "cf2")
	writeFile(t, a.OriginalPath)
	writeFile(t, a.ProcessedPath)
	a.CrossfadeTiming = &transcoder.CrossfadeTiming{Duration: 2, StartTime: 10}

	snap := &Snapshot{ConfigHash: "h", CombinedQueue: []transcoder.ProcessedArtifact{a}}
	restored, ok := Restore(snap, "h")
	require.True(t, ok)
	require.Equal(t, 10.0, restored.Queue[0].CrossfadeTiming.StartTime)
}

func TestPreserveSetAndSweepTempDirDeletesOrphans(t *testing.T) {
	dir := t.TempDir()
	keepA := filepath.Join(dir, "processed_a.mp4")
	keepB := filepath.Join(dir, "processed_b.mp4")
	orphanX := filepath.Join(dir, "processed_x.mp4")
	writeFile(t, keepA)
	writeFile(t, keepB)
	writeFile(t, orphanX)

	var queue []transcoder.ProcessedArtifact
	var a transcoder.ProcessedArtifact
	a.ProcessedPath = keepA
	queue = append(queue, a)

	var playback []history.Entry
	var e history.Entry
	e.ProcessedPath = keepB
	playback = append(playback, e)

	preserve := PreserveSet(queue, playback, nil)
	deleted, err := SweepTempDir(dir, preserve)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	require.FileExists(t, keepA)
	require.FileExists(t, keepB)
	require.NoFileExists(t, orphanX)
}

func TestSweepTempDirMissingDirIsNotAnError(t *testing.T) {
	_, err := SweepTempDir(filepath.Join(t.TempDir(), "nope"), map[string]bool{})
	require.NoError(t, err)
}
