package mediaqueue

import (
	"context"
	"time"

	"github.com/loopreel/loopreel/internal/log"
)

const criticalQueueThreshold = 5

// StartMonitoring runs the two interval-based guards from spec §4.6:
// every monitorInterval, validate() and refill toward target; every
// criticalInterval, refill immediately if size has dropped below the
// critical threshold. It also drains the internal refill signal so a GetNext/Validate
// signal triggers a fill without waiting for the next tick, per §4.6's
// "refill is triggered by enqueueing work, not by blocking the caller"
// concurrency contract. It blocks until ctx is cancelled.
func (q *Queue) StartMonitoring(ctx context.Context, monitorInterval, criticalInterval time.Duration) {
	logger := log.WithComponent("mediaqueue")

	monitorTicker := time.NewTicker(monitorInterval)
	defer monitorTicker.Stop()
	criticalTicker := time.NewTicker(criticalInterval)
	defer criticalTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.refillCh:
			if q.Size() < q.target {
				logger.Info().Int("size", q.Size()).Int("target", q.target).Msg("refill requested, filling")
				q.Fill(ctx, nil)
			}
		case <-monitorTicker.C:
			q.Validate()
			if q.Size() < q.target {
				logger.Info().Int("size", q.Size()).Int("target", q.target).Msg("queue below target, filling")
				q.Fill(ctx, nil)
			}
		case <-criticalTicker.C:
			if q.Size() < criticalQueueThreshold {
				logger.Warn().Int("size", q.Size()).Msg("queue critically low, filling immediately")
				q.Fill(ctx, nil)
			}
		}
	}
}
