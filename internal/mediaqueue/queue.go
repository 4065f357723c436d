// Package mediaqueue implements the bounded, randomly-ordered cache of
// preprocessed artifacts (C7, spec §4.6): background fill serialized by
// a single in-flight flag, refill-triggering pop, periodic validation,
// and monitoring.
package mediaqueue

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/fsutil"
	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/metadata"
	"github.com/loopreel/loopreel/internal/transcoder"
	"github.com/loopreel/loopreel/internal/videoindex"
)

const maxGetNextRetries = 10

// Picker is the subset of *videoindex.Index the queue needs to select
// and exclude source videos during fill.
type Picker interface {
	GetRandomVideo(seasonal []config.SeasonalDirectoryConfig, exclude map[string]bool, now time.Time, rng *rand.Rand) (videoindex.VideoEntry, bool)
}

// Queue is the in-memory preprocessed-artifact cache.
type Queue struct {
	mu    sync.Mutex
	items []*transcoder.ProcessedArtifact

	isProcessing bool

	index    Picker
	seasonal []config.SeasonalDirectoryConfig
	audio    config.AudioConfig
	perf     config.PerformanceConfig
	timeout  time.Duration
	tempDir  string
	target   int

	refillCh chan struct{}

	errorCount int
}

// New constructs an empty Queue. target is preprocessedQueueSize.
func New(index Picker, seasonal []config.SeasonalDirectoryConfig, audio config.AudioConfig, perf config.PerformanceConfig, timeout time.Duration, tempDir string, target int) *Queue {
	return &Queue{
		index:    index,
		seasonal: seasonal,
		audio:    audio,
		perf:     perf,
		timeout:  timeout,
		tempDir:  tempDir,
		target:   target,
		refillCh: make(chan struct{}, 1),
	}
}

// Size returns the current artifact count.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ErrorCount returns the cumulative per-video fill error count.
func (q *Queue) ErrorCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.errorCount
}

// Target returns the configured preprocessedQueueSize.
func (q *Queue) Target() int {
	return q.target
}

// IsProcessing reports whether a Fill is currently in flight, for the
// /api/queue-status isPreprocessing field.
func (q *Queue) IsProcessing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isProcessing
}

// Seed restores previously-persisted artifacts into the queue at
// startup, before any Fill has run, per spec §4.8's restore sequence.
func (q *Queue) Seed(items []transcoder.ProcessedArtifact) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range items {
		a := items[i]
		q.items = append(q.items, &a)
	}
}

// Items returns a snapshot copy of the currently queued artifacts, for
// state-save and temp-dir GC preservation sets.
func (q *Queue) Items() []transcoder.ProcessedArtifact {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]transcoder.ProcessedArtifact, len(q.items))
	for i, a := range q.items {
		out[i] = *a
	}
	return out
}

// GetNext pops a random artifact, verifying its file still exists. It
// retries up to maxGetNextRetries times on missing files, evicting each
// dead entry, before giving up. A refill is always requested afterward
// if the queue is now below target (spec §4.6).
func (q *Queue) GetNext() (*transcoder.ProcessedArtifact, bool) {
	logger := log.WithComponent("mediaqueue")
	defer q.requestRefillIfLow()

	for attempt := 0; attempt < maxGetNextRetries; attempt++ {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return nil, false
		}
		n := rand.IntN(len(q.items))
		artifact := q.items[n]
		q.items = append(q.items[:n], q.items[n+1:]...)
		q.mu.Unlock()

		if fsutil.Exists(artifact.ProcessedPath) {
			return artifact, true
		}
		logger.Warn().Str("processedPath", artifact.ProcessedPath).Int("attempt", attempt+1).
			Msg("evicting queue entry with missing artifact file")
	}
	return nil, false
}

// requestRefillIfLow enqueues a non-blocking refill signal if the queue
// size has dropped below target. StartMonitoring consumes the signal and
// decides when to actually run Fill.
func (q *Queue) requestRefillIfLow() {
	if q.Size() >= q.target {
		return
	}
	select {
	case q.refillCh <- struct{}{}:
	default:
	}
}

// Clear deletes every cached artifact's file, then empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, a := range items {
		if err := deleteArtifactFile(a.ProcessedPath); err != nil {
			log.WithComponent("mediaqueue").Warn().Err(err).Str("path", a.ProcessedPath).Msg("failed to delete artifact during clear")
		}
	}
}

// Validate removes entries whose processedPath no longer exists on
// disk, returning the count removed. It requests a refill if the
// resulting size is below target.
func (q *Queue) Validate() int {
	q.mu.Lock()
	var kept []*transcoder.ProcessedArtifact
	removed := 0
	for _, a := range q.items {
		if fsutil.Exists(a.ProcessedPath) {
			kept = append(kept, a)
		} else {
			removed++
		}
	}
	q.items = kept
	q.mu.Unlock()

	if removed > 0 {
		log.WithComponent("mediaqueue").Warn().Int("removed", removed).Msg("validate evicted artifacts with missing files")
	}
	q.requestRefillIfLow()
	return removed
}

// QueuedOriginalPaths returns the set of originalPath values already
// represented in the queue, for fill-time exclusion.
func (q *Queue) QueuedOriginalPaths() map[string]bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	set := make(map[string]bool, len(q.items))
	for _, a := range q.items {
		set[a.OriginalPath] = true
	}
	return set
}

func deleteArtifactFile(path string) error {
	if path == "" {
		return nil
	}
	return removeIfExists(path)
}

// metadataProbe is indirected so Fill can be exercised without shelling
// out to ffprobe in tests.
var metadataProbe = func(ctx context.Context, path string, timeout time.Duration) (*metadata.Metadata, error) {
	return metadata.Probe(ctx, path, timeout)
}
