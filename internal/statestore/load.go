package statestore

import (
	"os"

	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/transcoder"
)

// Restored is the product of applying a loaded Snapshot to the live
// config hash: the artifacts and history entries safe to seed C7/C8 with.
type Restored struct {
	Queue           []transcoder.ProcessedArtifact
	PlaybackHistory []history.Entry
	Stats           Stats
}

// Restore implements spec §4.8's Load semantics: a snapshot whose
// configHash no longer matches the live config is treated as "no prior
// state" (ok=false). Otherwise it keeps only artifacts whose
// originalPath and processedPath both still exist on disk, deletes the
// processed file of any artifact whose original has disappeared, and
// recomputes crossfadeTiming when the snapshot didn't carry one.
func Restore(snapshot *Snapshot, currentConfigHash string) (Restored, bool) {
	if snapshot == nil || snapshot.ConfigHash != currentConfigHash {
		return Restored{}, false
	}

	queue := make([]transcoder.ProcessedArtifact, 0, len(snapshot.CombinedQueue))
	for _, artifact := range snapshot.CombinedQueue {
		if kept, ok := restoreArtifact(artifact); ok {
			queue = append(queue, kept)
		}
	}

	playback := make([]history.Entry, 0, len(snapshot.PlaybackHistory))
	for _, entry := range snapshot.PlaybackHistory {
		if kept, ok := restoreArtifact(entry.ProcessedArtifact); ok {
			entry.ProcessedArtifact = kept
			playback = append(playback, entry)
		}
	}

	return Restored{Queue: queue, PlaybackHistory: playback, Stats: snapshot.Stats}, true
}

// restoreArtifact applies the originalPath/processedPath existence rule
// to a single artifact, deleting an orphaned processed file as a side
// effect, and fills in crossfadeTiming when absent.
func restoreArtifact(artifact transcoder.ProcessedArtifact) (transcoder.ProcessedArtifact, bool) {
	originalExists := fileExists(artifact.OriginalPath)
	processedExists := fileExists(artifact.ProcessedPath)

	if !originalExists {
		if processedExists {
			if err := os.Remove(artifact.ProcessedPath); err != nil && !os.IsNotExist(err) {
				log.WithComponent("statestore").Warn().Err(err).
					Str("path", artifact.ProcessedPath).
					Msg("failed to delete orphaned processed file")
			}
		}
		return artifact, false
	}
	if !processedExists {
		return artifact, false
	}

	if artifact.CrossfadeTiming == nil && artifact.Metadata != nil {
		artifact.CrossfadeTiming = transcoder.ComputeCrossfadeTiming(artifact.Metadata.Duration)
	}
	return artifact, true
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
