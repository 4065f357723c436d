// Package transcoder drives ffmpeg to produce one ProcessedArtifact per
// source video: the video stream is copied as-is, the audio stream is
// re-encoded through a channel-aware normalization/upmix filter chain,
// and the container is rewritten for streaming (spec §4.5).
package transcoder

import (
	"time"

	"github.com/google/uuid"

	"github.com/loopreel/loopreel/internal/metadata"
	"github.com/loopreel/loopreel/internal/videoindex"
)

// CrossfadeTiming is the pair consumed by clients to overlap playback of
// adjacent videos; the server never mixes audio/video itself.
type CrossfadeTiming struct {
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"startTime"`
}

// ProcessedArtifact is the unit cached by the preprocessed queue (C7).
type ProcessedArtifact struct {
	videoindex.VideoEntry
	Metadata               *metadata.Metadata `json:"metadata,omitempty"`
	ProcessedPath          string             `json:"processedPath"`
	VideoID                string             `json:"videoId"`
	ProcessedAt            time.Time          `json:"processedAt"`
	CrossfadeTiming        *CrossfadeTiming   `json:"crossfadeTiming"`
	OutputAudioChannels    int                `json:"outputAudioChannels"`
	OutputChannelLayout    string             `json:"outputChannelLayout"`
	AudioProcessingApplied string             `json:"audioProcessingApplied"`
	Reprocessed            bool               `json:"_reprocessed,omitempty"`
}

// NewVideoID mints a fresh, server-lifetime-unique artifact identifier.
func NewVideoID() string {
	return uuid.NewString()
}

// ProcessedFilename is the on-disk basename for a given video ID.
func ProcessedFilename(videoID string) string {
	return "processed_" + videoID + ".mp4"
}

// ComputeCrossfadeTiming implements spec §4.5 / §8: durations under 10s
// get no crossfade at all.
func ComputeCrossfadeTiming(duration *float64) *CrossfadeTiming {
	if duration == nil || *duration < 10 {
		return nil
	}
	d := *duration
	crossfade := 0.1 * d
	if crossfade > 3 {
		crossfade = 3
	}
	start := d - crossfade - 1
	if start < 0 {
		start = 0
	}
	return &CrossfadeTiming{Duration: crossfade, StartTime: start}
}
