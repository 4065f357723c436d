// Package initctl drives the startup sequence (C11, spec §4.10): a
// small forward-with-retry state sequence from loading_config through
// filling_queue to complete or error, broadcasting a status update on
// every stage change.
package initctl

import "context"

// Stage is one state of the initialization sequence.
type Stage string

const (
	StageNotStarted    Stage = "not_started"
	StageLoadingConfig Stage = "loading_config"
	StageBuildingIndex Stage = "building_index"
	StageFillingQueue  Stage = "filling_queue"
	StageRetrying      Stage = "retrying"
	StageComplete      Stage = "complete"
	StageError         Stage = "error"
)

// stageProgress maps each stage to the InitializationState.progress
// value reported to clients (spec §3).
var stageProgress = map[Stage]float64{
	StageNotStarted:    0,
	StageLoadingConfig: 10,
	StageBuildingIndex: 40,
	StageFillingQueue:  75,
	StageRetrying:      40,
	StageComplete:      100,
	StageError:         100,
}

// Update is the InitializationState broadcast as the
// initialization-update event and served from /api/initialization-status
// (spec §3, §6).
type Update struct {
	Stage    Stage   `json:"stage"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
	Attempt  int     `json:"attempt,omitempty"`
}

// Broadcaster is the narrow dependency this package needs from
// internal/broadcast, inverted so tests don't need a real hub.
type Broadcaster interface {
	BroadcastInitializationUpdate(Update)
}

// Steps are the caller-supplied stage bodies; initctl only owns stage
// sequencing, retry, timeout, and broadcast, not the work itself.
type Steps struct {
	LoadConfig func(ctx context.Context) error
	// BuildIndex returns the total number of videos found.
	BuildIndex func(ctx context.Context) (int, error)
	FillQueue  func(ctx context.Context) error
}
