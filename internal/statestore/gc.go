package statestore

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/transcoder"
)

// PreserveSet builds the basename allowlist spec §4.8's temp GC uses:
// every processedPath referenced by the live C7 queue, the live C8
// playback tier, and the last-loaded snapshot's combinedQueue and
// playbackHistory.
func PreserveSet(liveQueue []transcoder.ProcessedArtifact, livePlayback []history.Entry, snapshot *Snapshot) map[string]bool {
	preserve := make(map[string]bool)
	addBasenames(preserve, liveQueue)
	for _, e := range livePlayback {
		preserve[filepath.Base(e.ProcessedPath)] = true
	}
	if snapshot != nil {
		addBasenames(preserve, snapshot.CombinedQueue)
		for _, e := range snapshot.PlaybackHistory {
			preserve[filepath.Base(e.ProcessedPath)] = true
		}
	}
	return preserve
}

func addBasenames(preserve map[string]bool, artifacts []transcoder.ProcessedArtifact) {
	for _, a := range artifacts {
		if a.ProcessedPath != "" {
			preserve[filepath.Base(a.ProcessedPath)] = true
		}
	}
}

// SweepTempDir deletes every file directly under tempDir whose basename
// is not in preserve. EBUSY and ENOENT are treated as non-errors, since
// a file may be mid-write or already gone by the time it's listed.
func SweepTempDir(tempDir string, preserve map[string]bool) (deleted int, err error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	logger := log.WithComponent("statestore")
	var freedBytes int64
	for _, entry := range entries {
		if entry.IsDir() || preserve[entry.Name()] {
			continue
		}
		path := filepath.Join(tempDir, entry.Name())
		if info, statErr := entry.Info(); statErr == nil {
			freedBytes += info.Size()
		}
		if rmErr := os.Remove(path); rmErr != nil {
			if os.IsNotExist(rmErr) || errors.Is(rmErr, syscall.EBUSY) {
				continue
			}
			logger.Warn().Err(rmErr).Str("path", path).Msg("failed to remove stale temp file")
			continue
		}
		deleted++
	}
	if deleted > 0 {
		logger.Info().Int("deleted", deleted).Str("freed", humanize.Bytes(uint64(freedBytes))).Msg("swept orphaned temp files")
	}
	return deleted, nil
}
