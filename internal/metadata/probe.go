package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/loopreel/loopreel/internal/log"
)

// probeResult is the subset of ffprobe's JSON output this package reads.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType     string `json:"codec_type"`
		CodecName     string `json:"codec_name"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		Channels      int    `json:"channels"`
		ChannelLayout string `json:"channel_layout"`
		SampleRate    string `json:"sample_rate"`
		BitRate       string `json:"bit_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe on path and parses its JSON output into Metadata.
// Any failure (missing binary, non-zero exit, malformed output, timeout)
// is logged and returns (nil, err); the caller treats that as "no
// metadata" per spec §4.4 and continues rather than aborting.
func Probe(ctx context.Context, path string, timeout time.Duration) (*Metadata, error) {
	logger := log.WithComponent("metadata")

	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_entries", "stream=codec_type,codec_name,width,height,r_frame_rate,channels,channel_layout,sample_rate,bit_rate",
		"-show_streams",
		"-i", path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...) // #nosec G204 -- path is an indexed library file
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Warn().Err(err).Str("path", path).Str("stderr", stderr.String()).Msg("ffprobe failed")
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var data probeResult
	if err := json.Unmarshal(stdout.Bytes(), &data); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to parse ffprobe output")
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	md := &Metadata{}

	if d, err := strconv.ParseFloat(data.Format.Duration, 64); err == nil {
		md.Duration = &d
	}
	if sz, err := strconv.ParseInt(data.Format.Size, 10, 64); err == nil {
		md.FileSize = sz
	} else if info, statErr := os.Stat(path); statErr == nil {
		md.FileSize = info.Size()
	}
	if br, err := strconv.Atoi(data.Format.BitRate); err == nil {
		md.ContainerBitrate = br
	}

	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if md.VideoCodec == "" {
				md.VideoCodec = s.CodecName
				md.Width = s.Width
				md.Height = s.Height
				if fps, ok := parseFrameRate(s.RFrameRate); ok {
					md.FPS = &fps
				}
			}
		case "audio":
			if !md.HasAudio {
				md.HasAudio = true
				md.AudioCodec = s.CodecName
				md.AudioChannels = s.Channels
				md.ChannelLayout = s.ChannelLayout
				if md.ChannelLayout == "" {
					md.ChannelLayout = DeriveChannelLayout(s.Channels)
				}
				if sr, err := strconv.Atoi(s.SampleRate); err == nil {
					md.SampleRate = sr
				}
				if br, err := strconv.Atoi(s.BitRate); err == nil {
					md.AudioBitrate = br
				}
			}
		}
	}

	return md, nil
}

// parseFrameRate accepts either a "num/den" rational (ffprobe's usual
// format for r_frame_rate) or a plain decimal.
func parseFrameRate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0/0" {
		return 0, false
	}
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN == nil && errD == nil && d != 0 {
			return n / d, true
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
