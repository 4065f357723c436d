// Package reprocess implements the ensure-video-processed handler (C10,
// spec §4.9): given a prior ProcessedArtifact reference, guarantee its
// processedPath is currently valid, re-invoking the transcoder only when
// necessary.
package reprocess

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/metadata"
	"github.com/loopreel/loopreel/internal/transcoder"
)

// Ensure implements spec §4.9: fail if the original is gone; return the
// artifact unchanged if its processed file is still present; otherwise
// re-transcode and merge the fresh processedPath/videoId/processedAt
// onto the original entry, preserving or recomputing crossfadeTiming and
// marking the result as reprocessed.
func Ensure(
	ctx context.Context,
	artifact transcoder.ProcessedArtifact,
	audio config.AudioConfig,
	perf config.PerformanceConfig,
	timeout time.Duration,
	tempDir string,
	probe func(ctx context.Context, path string, timeout time.Duration) (*metadata.Metadata, error),
) (transcoder.ProcessedArtifact, error) {
	if !fileExists(artifact.OriginalPath) {
		return transcoder.ProcessedArtifact{}, fmt.Errorf("reprocess: original video missing: %s", artifact.OriginalPath)
	}
	if fileExists(artifact.ProcessedPath) {
		return artifact, nil
	}

	md, err := probe(ctx, artifact.OriginalPath, 0)
	if err != nil {
		md = nil
	}

	fresh, err := transcoder.Process(ctx, artifact.VideoEntry, md, audio, perf, timeout, tempDir)
	if err != nil {
		return transcoder.ProcessedArtifact{}, fmt.Errorf("reprocess: %w", err)
	}

	merged := artifact
	merged.ProcessedPath = fresh.ProcessedPath
	merged.VideoID = fresh.VideoID
	merged.ProcessedAt = fresh.ProcessedAt
	merged.Metadata = fresh.Metadata
	merged.OutputAudioChannels = fresh.OutputAudioChannels
	merged.OutputChannelLayout = fresh.OutputChannelLayout
	merged.AudioProcessingApplied = fresh.AudioProcessingApplied
	merged.Reprocessed = true

	if merged.CrossfadeTiming == nil {
		if merged.Metadata != nil {
			merged.CrossfadeTiming = transcoder.ComputeCrossfadeTiming(merged.Metadata.Duration)
		} else {
			merged.CrossfadeTiming = fresh.CrossfadeTiming
		}
	}

	return merged, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
