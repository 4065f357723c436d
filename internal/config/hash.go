package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// hashProjection is the subset of the config that invalidates persisted
// state when it changes (spec §4.1): the video library composition and
// the index refresh interval. Unrelated knobs (audio tuning, timeouts,
// network) must not force a queue/history reset.
type hashProjection struct {
	Directories         []string                  `json:"directories"`
	SeasonalDirectories []SeasonalDirectoryConfig  `json:"seasonalDirectories"`
	UpdateIntervalNanos int64                      `json:"updateIntervalNanos"`
}

// Hash computes a stable hex-encoded SHA-256 digest of the parts of cfg
// that determine whether persisted queue/history state is still valid.
func Hash(cfg FileConfig) string {
	dirs := append([]string(nil), cfg.Directories...)
	sort.Strings(dirs)

	seasonal := append([]SeasonalDirectoryConfig(nil), cfg.SeasonalDirectories...)
	sort.Slice(seasonal, func(i, j int) bool { return seasonal[i].Directory < seasonal[j].Directory })

	var nanos int64
	if cfg.Video != nil && cfg.Video.UpdateInterval != nil {
		nanos = int64(*cfg.Video.UpdateInterval)
	}

	proj := hashProjection{
		Directories:         dirs,
		SeasonalDirectories: seasonal,
		UpdateIntervalNanos: nanos,
	}

	// json.Marshal on a fixed struct shape is deterministic field order,
	// so this is stable across runs for equal input.
	data, err := json.Marshal(proj)
	if err != nil {
		// Struct is always marshalable; this path is unreachable in practice.
		data = []byte(err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
