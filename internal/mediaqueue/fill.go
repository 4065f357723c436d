package mediaqueue

import (
	"context"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/transcoder"
)

// cpuLimiter paces Fill's transcode spawns per performance.cpuLimiting's
// processingDelay (spec §4.5 performance throttling), returning nil when
// throttling is disabled or unset.
func cpuLimiter(perf config.PerformanceConfig) *rate.Limiter {
	cl := perf.CPULimiting
	if cl == nil || cl.Enabled == nil || !*cl.Enabled || cl.ProcessingDelay == nil || *cl.ProcessingDelay <= 0 {
		return nil
	}
	delay := time.Duration(*cl.ProcessingDelay) * time.Millisecond
	return rate.NewLimiter(rate.Every(delay), 1)
}

// FillProgress is reported once per successfully processed video.
type FillProgress struct {
	Current int
	Target  int
}

// Fill tops the queue up to target, serialized by isProcessing so only
// one fill runs at a time (spec §4.6). It draws unique videos from the
// index (excluding originalPaths already queued), transcodes each via
// internal/transcoder, and pushes every success. Per-video errors are
// counted and do not abort the fill; a video with a since-deleted
// source file is skipped with a warning. A Queue built without a Picker
// never fills.
func (q *Queue) Fill(ctx context.Context, onProgress func(FillProgress)) {
	if q.index == nil {
		return
	}
	q.mu.Lock()
	if q.isProcessing {
		q.mu.Unlock()
		return
	}
	q.isProcessing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.isProcessing = false
		q.mu.Unlock()
	}()

	logger := log.WithComponent("mediaqueue")
	limiter := cpuLimiter(q.perf)

	for {
		if ctx.Err() != nil {
			return
		}
		size := q.Size()
		if size >= q.target {
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		exclude := q.QueuedOriginalPaths()
		entry, ok := q.index.GetRandomVideo(q.seasonal, exclude, time.Now(), nil)
		if !ok {
			logger.Warn().Msg("no eligible source video available to fill queue")
			return
		}

		if _, err := os.Stat(entry.OriginalPath); err != nil {
			logger.Warn().Str("path", entry.OriginalPath).Msg("skipping missing source file during fill")
			continue
		}

		md, err := metadataProbe(ctx, entry.OriginalPath, 15*time.Second)
		if err != nil {
			logger.Warn().Err(err).Str("path", entry.OriginalPath).Msg("metadata probe failed, proceeding without metadata")
			md = nil
		}

		artifact, err := transcoder.Process(ctx, entry, md, q.audio, q.perf, q.timeout, q.tempDir)
		if err != nil {
			q.mu.Lock()
			q.errorCount++
			q.mu.Unlock()
			logger.Error().Err(err).Str("path", entry.OriginalPath).Msg("transcode failed during fill, continuing")
			continue
		}

		q.mu.Lock()
		q.items = append(q.items, artifact)
		newSize := len(q.items)
		q.mu.Unlock()

		if onProgress != nil {
			onProgress(FillProgress{Current: newSize, Target: q.target})
		}
	}
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
