package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/metadata"
	"github.com/loopreel/loopreel/internal/videoindex"
)

const minValidOutputBytes = 1024 // 1 KiB, spec §4.5 output validation

// compatibilitySubstrings are the ffmpeg stderr fragments that trigger
// the one-shot stereo-fallback retry (spec §4.5, §7).
var compatibilitySubstrings = []string{"audio", "pan", "loudnorm", "channel"}

// Process runs the transcoder for one source video and returns the
// resulting ProcessedArtifact. tempDir is where processed_<uuid>.mp4
// files are written.
func Process(ctx context.Context, entry videoindex.VideoEntry, md *metadata.Metadata, audio config.AudioConfig, perf config.PerformanceConfig, timeout time.Duration, tempDir string) (*ProcessedArtifact, error) {
	logger := log.WithComponent("transcoder")

	channels, layout := 0, ""
	if md != nil {
		channels = md.AudioChannels
		layout = md.ChannelLayout
	}

	videoID := NewVideoID()
	outputPath := filepath.Join(tempDir, ProcessedFilename(videoID))

	plan := BuildAudioPlan(channels, layout, audio)
	logger.Info().Str("file", entry.Filename).Str("chain", plan.Filter).Str("applied", plan.Applied).Msg("composed audio filter chain")

	if err := runOnce(ctx, entry.OriginalPath, outputPath, plan, perf, timeout); err != nil {
		if isCompatibilityFailure(err) && plan.Applied != "stereo-compatible" {
			logger.Warn().Err(err).Str("file", entry.Filename).Msg("transcode failed on audio chain, retrying in stereo fallback")
			_ = os.Remove(outputPath)
			plan = stereoFallback(audio)
			if err := runOnce(ctx, entry.OriginalPath, outputPath, plan, perf, timeout); err != nil {
				_ = os.Remove(outputPath)
				return nil, fmt.Errorf("transcode failed after stereo fallback retry: %w", err)
			}
		} else {
			_ = os.Remove(outputPath)
			return nil, fmt.Errorf("transcode failed: %w", err)
		}
	}

	if err := validateOutput(outputPath); err != nil {
		_ = os.Remove(outputPath)
		return nil, err
	}

	var duration *float64
	if md != nil {
		duration = md.Duration
	}

	return &ProcessedArtifact{
		VideoEntry:             entry,
		Metadata:               md,
		ProcessedPath:          outputPath,
		VideoID:                videoID,
		ProcessedAt:            time.Now(),
		CrossfadeTiming:        ComputeCrossfadeTiming(duration),
		OutputAudioChannels:    plan.OutputChannels,
		OutputChannelLayout:    plan.OutputLayout,
		AudioProcessingApplied: plan.Applied,
	}, nil
}

func runOnce(ctx context.Context, inputPath, outputPath string, plan audioPlan, perf config.PerformanceConfig, timeout time.Duration) error {
	if delay := processingDelay(perf); delay > 0 {
		select {
		case <-time.After(time.Duration(delay) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := buildFFmpegArgs(inputPath, outputPath, plan, perf)
	cmd := exec.CommandContext(runCtx, "ffmpeg", args...) // #nosec G204 -- args are built from validated config/source paths
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, stderr.String())
	}
	return nil
}

func isCompatibilityFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range compatibilitySubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func validateOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	if info.Size() <= minValidOutputBytes {
		return fmt.Errorf("output too small: %d bytes", info.Size())
	}
	return nil
}
