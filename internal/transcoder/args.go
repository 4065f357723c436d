package transcoder

import (
	"strconv"

	"github.com/loopreel/loopreel/internal/config"
)

// buildFFmpegArgs composes the full ffmpeg argument list: video stream
// copy, the resolved audio plan, CPU-throttling flags, and MP4
// faststart output — grounded on the teacher's default remux argument
// shape (copy video, transcode audio, movflags +faststart, strip
// subtitle/data streams).
func buildFFmpegArgs(inputPath, outputPath string, plan audioPlan, perf config.PerformanceConfig) []string {
	args := []string{
		"-y",
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-fflags", "+genpts+discardcorrupt",
	}
	args = append(args, cpuThrottleArgs(perf)...)
	args = append(args,
		"-i", inputPath,
		"-map", "0:v:0?",
		"-map", "0:a:0?",
		"-c:v", "copy",
		"-bsf:v", "setts=pts=PTS-STARTPTS:dts=DTS-STARTPTS",
	)

	if plan.OutputChannels > 0 {
		args = append(args, "-c:a", plan.Codec, "-b:a", plan.Bitrate, "-ac", strconv.Itoa(plan.OutputChannels))
		if plan.Filter != "" {
			args = append(args, "-filter:a", plan.Filter)
		}
	} else {
		args = append(args, "-an")
	}

	args = append(args,
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		"-sn", "-dn",
		"-f", "mp4",
		outputPath,
	)
	return args
}

// cpuThrottleArgs implements spec §4.5 performance throttling: preset
// selected by performance.mode, overridden per-field by cpuLimiting.
func cpuThrottleArgs(perf config.PerformanceConfig) []string {
	preset := "medium"
	if perf.Mode != "" {
		if p, ok := perf.Presets[perf.Mode]; ok && p.Preset != "" {
			preset = p.Preset
		}
	}

	var args []string
	cl := perf.CPULimiting
	if cl != nil && cl.Enabled != nil && *cl.Enabled {
		if cl.MaxThreads != nil && *cl.MaxThreads > 0 {
			args = append(args, "-threads", strconv.Itoa(*cl.MaxThreads))
		}
		if cl.ThreadQueueSize != nil && *cl.ThreadQueueSize > 0 {
			args = append(args, "-thread_queue_size", strconv.Itoa(*cl.ThreadQueueSize))
		}
		if cl.MaxThreads != nil && *cl.MaxThreads == 1 {
			args = append(args, "-cpu-used", "1")
		}
	}
	args = append(args, "-preset", preset)
	return args
}

// processingDelay returns the configured pre-job throttle sleep, 0 if unset.
func processingDelay(perf config.PerformanceConfig) int {
	if perf.CPULimiting == nil || perf.CPULimiting.ProcessingDelay == nil {
		return 0
	}
	return *perf.CPULimiting.ProcessingDelay
}
