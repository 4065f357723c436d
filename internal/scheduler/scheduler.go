// Package scheduler runs the three periodic background tasks (C13,
// spec §4.11): index refresh, temp-directory cleanup, and state save.
// Each task is isolated — a failure in one is logged and never stops
// the others, matching the teacher's periodic-ticker goroutine shape
// (internal/daemon/app.go's EPG refresh loop).
package scheduler

import (
	"context"
	"time"

	"github.com/loopreel/loopreel/internal/log"
)

const defaultIndexDeltaThreshold = 5

// Tasks are the caller-supplied bodies; Scheduler only owns interval
// timing and per-task error isolation.
type Tasks struct {
	// RefreshIndex rescans the library and returns how many videos the
	// count changed by (sign doesn't matter, only magnitude).
	RefreshIndex func(ctx context.Context) (delta int, err error)
	// OnIndexDeltaExceeded fires when |delta| > DeltaThreshold: the spec
	// requires clearing C7's queue and discarding the C9 snapshot so
	// stale-library artifacts are never served.
	OnIndexDeltaExceeded func()

	CleanupTemp func(ctx context.Context) error
	SaveState   func(ctx context.Context) error
}

// Scheduler owns the three interval settings and runs Tasks against them.
type Scheduler struct {
	IndexRefreshInterval time.Duration
	TempCleanupInterval  time.Duration
	StateSaveInterval    time.Duration
	DeltaThreshold       int

	tasks Tasks
}

// New constructs a Scheduler bound to tasks; zero-value intervals
// disable that particular periodic task.
func New(tasks Tasks, indexRefreshInterval, tempCleanupInterval, stateSaveInterval time.Duration) *Scheduler {
	return &Scheduler{
		IndexRefreshInterval: indexRefreshInterval,
		TempCleanupInterval:  tempCleanupInterval,
		StateSaveInterval:    stateSaveInterval,
		DeltaThreshold:       defaultIndexDeltaThreshold,
		tasks:                tasks,
	}
}

// Start launches the enabled periodic tasks as background goroutines. It
// returns immediately; all tasks stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.IndexRefreshInterval > 0 && s.tasks.RefreshIndex != nil {
		go s.runPeriodic(ctx, "index_refresh", s.IndexRefreshInterval, s.runIndexRefresh)
	}
	if s.TempCleanupInterval > 0 && s.tasks.CleanupTemp != nil {
		go s.runPeriodic(ctx, "temp_cleanup", s.TempCleanupInterval, s.tasks.CleanupTemp)
	}
	if s.StateSaveInterval > 0 && s.tasks.SaveState != nil {
		go s.runPeriodic(ctx, "state_save", s.StateSaveInterval, s.tasks.SaveState)
	}
}

func (s *Scheduler) runIndexRefresh(ctx context.Context) error {
	delta, err := s.tasks.RefreshIndex(ctx)
	if err != nil {
		return err
	}
	threshold := s.DeltaThreshold
	if threshold <= 0 {
		threshold = defaultIndexDeltaThreshold
	}
	if abs(delta) > threshold && s.tasks.OnIndexDeltaExceeded != nil {
		s.tasks.OnIndexDeltaExceeded()
	}
	return nil
}

func (s *Scheduler) runPeriodic(ctx context.Context, name string, interval time.Duration, task func(context.Context) error) {
	logger := log.WithComponent("scheduler")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := task(ctx); err != nil {
				logger.Error().Err(err).Str("task", name).Msg("periodic task failed")
			}
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
