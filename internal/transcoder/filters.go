package transcoder

import (
	"fmt"
	"strings"

	"github.com/loopreel/loopreel/internal/config"
)

// audioPlan is the resolved outcome of filter/codec selection for one job.
type audioPlan struct {
	Filter        string // ffmpeg -filter:a value, "" if none
	Codec         string
	Bitrate       string
	OutputChannels int
	OutputLayout  string
	Applied       string // audioProcessingApplied label
}

// stereoFallback forces a plain 2-channel AAC output with normalization
// only, skipping every pan/upmix filter — used both as the configured
// compatibility mode and as the one-shot retry path after a pan/loudnorm
// failure (spec §4.5).
func stereoFallback(audio config.AudioConfig) audioPlan {
	norm := buildLoudnormFilter(audio.Normalization)
	plan := audioPlan{
		Codec:          stereoCodec(audio),
		Bitrate:        stereoBitrate(audio),
		OutputChannels: 2,
		OutputLayout:   "stereo",
		Applied:        "stereo-compatible",
	}
	if norm != "" {
		plan.Filter = norm
	}
	return plan
}

// BuildAudioPlan resolves the full audio filter chain and codec/bitrate
// selection for a source with the given channel count/layout, per the
// channel-count branches of spec §4.5.
func BuildAudioPlan(channels int, channelLayout string, audio config.AudioConfig) audioPlan {
	if mustFallbackToStereo(audio) {
		return stereoFallback(audio)
	}

	norm := buildLoudnormFilter(audio.Normalization)
	rear, center, lfe := upmixLevels(audio.StereoUpmixing)

	switch {
	case channels <= 0:
		return audioPlan{Applied: "none", OutputChannels: 0}

	case channels == 1:
		pan := fmt.Sprintf("pan=5.1|FL=1.0*c0|FR=1.0*c0|FC=%.2f*c0|LFE=%.2f*c0|BL=%.2f*c0|BR=%.2f*c0", center, lfe, rear, rear)
		return audioPlan{
			Filter:         chain(norm, pan),
			Codec:          multichannelCodec(audio),
			Bitrate:        multichannelBitrate(audio),
			OutputChannels: 6,
			OutputLayout:   "5.1",
			Applied:        "mono-upmix",
		}

	case channels == 2:
		pan := fmt.Sprintf("pan=5.1|FL=1.0*FL|FR=1.0*FR|FC=%.2f*FL+%.2f*FR|LFE=%.2f*FL+%.2f*FR|BL=%.2f*FL|BR=%.2f*FR", center/2, center/2, lfe/2, lfe/2, rear, rear)
		return audioPlan{
			Filter:         chain(norm, pan),
			Codec:          multichannelCodec(audio),
			Bitrate:        multichannelBitrate(audio),
			OutputChannels: 6,
			OutputLayout:   "5.1",
			Applied:        "stereo-upmix",
		}

	case channels == 3, channels == 4, channels == 5:
		resample := "aresample=async=1"
		pan := panForChannelCount(channels, rear, center, lfe)
		return audioPlan{
			Filter:         chain(norm, resample, pan),
			Codec:          multichannelCodec(audio),
			Bitrate:        multichannelBitrate(audio),
			OutputChannels: 6,
			OutputLayout:   "5.1",
			Applied:        fmt.Sprintf("%dch-upmix", channels),
		}

	default: // channels >= 6
		preserve := boolValue(audio.Compatibility, func(c *config.CompatibilityConfig) *bool { return c.PreserveOriginalIfMultichannel })
		if preserve && (channelLayout == "5.1" || channelLayout == "5.1(side)") {
			light := lightNormalizeFilter(audio.Normalization)
			return audioPlan{
				Filter:         light,
				Codec:          multichannelCodec(audio),
				Bitrate:        multichannelBitrate(audio),
				OutputChannels: channels,
				OutputLayout:   channelLayout,
				Applied:        "preserved-multichannel",
			}
		}
		return audioPlan{
			Filter:         norm,
			Codec:          multichannelCodec(audio),
			Bitrate:        multichannelBitrate(audio),
			OutputChannels: channels,
			OutputLayout:   channelLayout,
			Applied:        "multichannel-normalized",
		}
	}
}

func mustFallbackToStereo(audio config.AudioConfig) bool {
	if audio.Enabled51Processing != nil && !*audio.Enabled51Processing {
		return true
	}
	if audio.Compatibility == nil {
		return false
	}
	mode := audio.Compatibility.CompatibilityMode
	if mode == "stereo" {
		return true
	}
	if mode == "auto" && audio.Compatibility.FallbackToStereo != nil && *audio.Compatibility.FallbackToStereo {
		return true
	}
	return false
}

func panForChannelCount(channels int, rear, center, lfe float64) string {
	switch channels {
	case 3:
		return fmt.Sprintf("pan=5.1|FL=1.0*FL|FR=1.0*FR|FC=1.0*FC|LFE=%.2f*FC|BL=%.2f*FL|BR=%.2f*FR", lfe, rear, rear)
	case 4:
		return fmt.Sprintf("pan=5.1|FL=1.0*FL|FR=1.0*FR|FC=%.2f*FL+%.2f*FR|LFE=%.2f*FL+%.2f*FR|BL=1.0*BL|BR=1.0*BR", center/2, center/2, lfe/2, lfe/2)
	default: // 5
		return "pan=5.1|FL=1.0*FL|FR=1.0*FR|FC=1.0*FC|LFE=0.5*FC|BL=1.0*BL|BR=1.0*BR"
	}
}

// buildLoudnormFilter expands the configured strength preset then
// applies per-field overrides, returning "" when normalization is
// disabled.
func buildLoudnormFilter(n *config.NormalizationConfig) string {
	if n == nil || (n.Enabled != nil && !*n.Enabled) {
		return ""
	}
	i, tp, lra, dual := -16.0, -1.5, 11.0, true
	if preset, ok := n.Presets[n.Strength]; ok {
		i, tp, lra, dual = preset.I, preset.TP, preset.LRA, preset.DualMono
	}
	if n.TargetLUFS != nil {
		i = *n.TargetLUFS
	}
	if n.TruePeak != nil {
		tp = *n.TruePeak
	}
	if n.LRA != nil {
		lra = *n.LRA
	}
	if n.DualMono != nil {
		dual = *n.DualMono
	}
	return fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.1f:dual_mono=%t", i, tp, lra, dual)
}

// lightNormalizeFilter is the reduced-intervention pass used when an
// already-5.1 source is preserved rather than re-mixed.
func lightNormalizeFilter(n *config.NormalizationConfig) string {
	if n == nil || (n.Enabled != nil && !*n.Enabled) {
		return ""
	}
	return "loudnorm=I=-18.0:TP=-2.0:LRA=15.0:dual_mono=false"
}

func upmixLevels(u *config.StereoUpmixingConfig) (rear, center, lfe float64) {
	rear, center, lfe = 0.6, 0.7, 0.5
	if u == nil {
		return
	}
	if u.RearChannelLevel != nil {
		rear = *u.RearChannelLevel
	}
	if u.CenterChannelLevel != nil {
		center = *u.CenterChannelLevel
	}
	if u.LFEChannelLevel != nil {
		lfe = *u.LFEChannelLevel
	}
	return
}

func chain(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ",")
}

func stereoCodec(audio config.AudioConfig) string {
	if forceAAC(audio) {
		return "aac"
	}
	if audio.CodecPreferences != nil && audio.CodecPreferences.Stereo != "" {
		return audio.CodecPreferences.Stereo
	}
	return "aac"
}

func stereoBitrate(audio config.AudioConfig) string {
	if forceAAC(audio) {
		return "256k"
	}
	if audio.CodecPreferences != nil && audio.CodecPreferences.StereoBitrate != "" {
		return audio.CodecPreferences.StereoBitrate
	}
	return "192k"
}

func multichannelCodec(audio config.AudioConfig) string {
	if forceAAC(audio) {
		return "aac"
	}
	if audio.CodecPreferences != nil && audio.CodecPreferences.Multichannel != "" {
		return audio.CodecPreferences.Multichannel
	}
	return "aac"
}

func multichannelBitrate(audio config.AudioConfig) string {
	if forceAAC(audio) {
		return "384k"
	}
	if audio.CodecPreferences != nil && audio.CodecPreferences.MultichannelBitrate != "" {
		return audio.CodecPreferences.MultichannelBitrate
	}
	return "640k"
}

func forceAAC(audio config.AudioConfig) bool {
	return audio.Compatibility != nil && audio.Compatibility.ForceAAC != nil && *audio.Compatibility.ForceAAC
}

func boolValue(c *config.CompatibilityConfig, get func(*config.CompatibilityConfig) *bool) bool {
	if c == nil {
		return false
	}
	p := get(c)
	return p != nil && *p
}
