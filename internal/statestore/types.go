// Package statestore persists the combined queue/history snapshot (C9,
// spec §4.8), restores it subject to the config-hash invalidation rule,
// and sweeps the temp directory for files no longer referenced by any
// live queue, history tier, or the last snapshot.
package statestore

import (
	"time"

	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/transcoder"
)

// Stats are the counters surfaced by /api/detailed-stats and persisted
// alongside the snapshot (spec §3 Stats).
type Stats struct {
	TotalVideos             int       `json:"totalVideos"`
	PreprocessedCount       int       `json:"preprocessedCount"`
	ErrorCount              int       `json:"errorCount"`
	SessionSkipCount        int       `json:"sessionSkipCount"`
	SessionReturnCount      int       `json:"sessionReturnCount"`
	VideosPlayedThisSession int       `json:"videosPlayedThisSession"`
	LastIndexUpdate         time.Time `json:"lastIndexUpdate"`
}

// Snapshot is the combined persisted state (spec §4.8, §6 queue-state.json).
type Snapshot struct {
	SavedAt         time.Time                       `json:"savedAt"`
	ConfigHash      string                           `json:"configHash"`
	CombinedQueue   []transcoder.ProcessedArtifact   `json:"combinedQueue"`
	PlaybackHistory []history.Entry                  `json:"playbackHistory"`
	Stats           Stats                            `json:"stats"`
}

// Backend is a pluggable persistence mechanism for Snapshot, mirroring
// the teacher's backend-selectable state store (memory/bolt/badger).
type Backend interface {
	Save(Snapshot) error
	// Load returns (nil, false, nil) when no snapshot has ever been saved.
	Load() (*Snapshot, bool, error)
	Close() error
}
