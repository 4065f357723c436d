// Package videoindex scans configured directories for video files,
// maintains a persistent regular + seasonal index, and implements the
// seasonal/random selection contract (spec §4.2, §4.3).
package videoindex

import "time"

// VideoEntry is a file known to exist on disk at index time.
type VideoEntry struct {
	OriginalPath      string    `json:"originalPath"`
	Filename          string    `json:"filename"`
	Directory         string    `json:"directory"`
	AddedAt           time.Time `json:"addedAt"`
	SeasonalDirectory string    `json:"seasonalDirectory,omitempty"`
}

// Snapshot is the in-memory state backing the two persisted JSON files.
type Snapshot struct {
	Regular  []VideoEntry
	Seasonal map[string][]VideoEntry // keyed by seasonalDirectories[i].directory
}

// seasonalFile is the on-disk shape of seasonal-video-index.json (spec §6).
type seasonalFile struct {
	SavedAt        time.Time               `json:"savedAt"`
	SeasonalVideos map[string][]VideoEntry `json:"seasonalVideos"`
}

// ScanProgress is emitted once per configured directory during a scan.
type ScanProgress struct {
	Percent float64
	Message string
}
