// Package history implements the dual-tier playback history manager
// (C8, spec §4.7): a small in-memory LIFO for "previous video", and a
// large on-disk LIFO surviving restarts, kept free of duplicate
// originalPath entries by dedup-on-insert.
package history

import (
	"time"

	"github.com/loopreel/loopreel/internal/transcoder"
)

// Entry is a ProcessedArtifact annotated with when it entered history.
type Entry struct {
	transcoder.ProcessedArtifact
	AddedToHistoryAt time.Time `json:"addedToHistoryAt"`
	FromHistory      bool      `json:"_fromHistory,omitempty"`
}

// persistedFile is the on-disk shape of persisted-history.json (spec §6).
type persistedFile struct {
	SavedAt         time.Time `json:"savedAt"`
	PersistedHistory []Entry  `json:"persistedHistory"`
}
