package initctl

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/loopreel/loopreel/internal/log"
)

// errZeroVideos is returned internally when indexing finds nothing; the
// spec treats this as a terminal error, never a retryable one.
var errZeroVideos = errors.New("no videos found after indexing")

// Controller sequences the stages named in Stage, adapted from the
// teacher's generic from/event/to transition runner
// (internal/pipeline/fsm/fsm.go) into a linear retry-with-backoff
// sequence: this sequence has no branching transitions to index, only a
// whole-sequence retry, so a direct table-driven Machine would be pure
// overhead over a straight-line loop.
type Controller struct {
	broadcaster  Broadcaster
	maxAttempts  int
	backoff      func(attempt int) time.Duration
	totalTimeout time.Duration
	guardInterval time.Duration

	stage atomic.Value // Stage
}

// New constructs a Controller. backoff computes the delay before retry
// attempt N (N starting at 2); guardInterval is how often the
// late-client consistency guard re-broadcasts "complete".
func New(broadcaster Broadcaster, maxAttempts int, backoff func(attempt int) time.Duration, totalTimeout, guardInterval time.Duration) *Controller {
	c := &Controller{
		broadcaster:   broadcaster,
		maxAttempts:   maxAttempts,
		backoff:       backoff,
		totalTimeout:  totalTimeout,
		guardInterval: guardInterval,
	}
	c.stage.Store(StageNotStarted)
	return c
}

// CurrentStage reports the last stage reached.
func (c *Controller) CurrentStage() Stage {
	return c.stage.Load().(Stage)
}

// Status reports the current stage and that stage's fixed progress
// value, for handlers that serve /api/initialization-status directly.
// It carries no message, error or attempt fields.
func (c *Controller) Status() Update {
	stage := c.CurrentStage()
	return Update{Stage: stage, Progress: stageProgress[stage]}
}

// Run drives the sequence to completion or terminal error, per spec
// §4.10: each attempt runs loading_config -> building_index ->
// filling_queue; a zero-video index is a terminal error with no retry;
// any other step failure retries up to maxAttempts with backoff; the
// whole run is bounded by totalTimeout.
func (c *Controller) Run(ctx context.Context, steps Steps) error {
	logger := log.WithComponent("initctl")

	runCtx := ctx
	var cancel context.CancelFunc
	if c.totalTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.totalTimeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.setStage(StageRetrying, fmt.Sprintf("retry %d/%d after: %v", attempt, c.maxAttempts, lastErr), attempt)
			select {
			case <-time.After(c.backoff(attempt)):
			case <-runCtx.Done():
				return c.fail(runCtx.Err())
			}
		}

		err := c.runOnce(runCtx, steps, attempt)
		if err == nil {
			c.startGuard(ctx)
			return nil
		}
		if errors.Is(err, errZeroVideos) {
			return c.fail(err)
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", attempt).Msg("initialization attempt failed")

		if runCtx.Err() != nil {
			return c.fail(runCtx.Err())
		}
	}
	return c.fail(lastErr)
}

func (c *Controller) runOnce(ctx context.Context, steps Steps, attempt int) error {
	c.setStage(StageLoadingConfig, "", attempt)
	if err := steps.LoadConfig(ctx); err != nil {
		return fmt.Errorf("loading_config: %w", err)
	}

	c.setStage(StageBuildingIndex, "", attempt)
	total, err := steps.BuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("building_index: %w", err)
	}
	if total == 0 {
		return errZeroVideos
	}

	c.setStage(StageFillingQueue, "", attempt)
	if err := steps.FillQueue(ctx); err != nil {
		return fmt.Errorf("filling_queue: %w", err)
	}

	c.setStage(StageComplete, "", attempt)
	return nil
}

func (c *Controller) fail(err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.stage.Store(StageError)
	if c.broadcaster != nil {
		c.broadcaster.BroadcastInitializationUpdate(Update{Stage: StageError, Progress: stageProgress[StageError], Error: msg})
	}
	return err
}

func (c *Controller) setStage(stage Stage, message string, attempt int) {
	c.stage.Store(stage)
	if c.broadcaster != nil {
		c.broadcaster.BroadcastInitializationUpdate(Update{Stage: stage, Progress: stageProgress[stage], Message: message, Attempt: attempt})
	}
}

// startGuard restarts the periodic consistency guard: as long as the
// controller's stage remains complete, it re-broadcasts that state so a
// freshly-connecting client that raced the original broadcast still
// converges on a consistent snapshot.
func (c *Controller) startGuard(ctx context.Context) {
	if c.guardInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(c.guardInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.CurrentStage() != StageComplete {
					return
				}
				c.setStage(StageComplete, "", 0)
			}
		}
	}()
}
