// Package metadata probes video files with an external prober (ffprobe)
// and parses the result into the Metadata structure consumed by the
// transcoder (spec §4.4).
package metadata

import "strconv"

// Metadata is a probe result, attached to a VideoEntry only on success.
type Metadata struct {
	Duration         *float64 `json:"duration,omitempty"`
	Width            int      `json:"width,omitempty"`
	Height           int      `json:"height,omitempty"`
	FPS              *float64 `json:"fps,omitempty"`
	VideoCodec       string   `json:"videoCodec,omitempty"`
	HasAudio         bool     `json:"hasAudio"`
	AudioChannels    int      `json:"audioChannels,omitempty"`
	ChannelLayout    string   `json:"channelLayout,omitempty"`
	AudioCodec       string   `json:"audioCodec,omitempty"`
	SampleRate       int      `json:"sampleRate,omitempty"`
	AudioBitrate     int      `json:"audioBitrate,omitempty"`
	FileSize         int64    `json:"fileSize,omitempty"`
	ContainerBitrate int      `json:"containerBitrate,omitempty"`
}

// DeriveChannelLayout maps a channel count to a layout name when the
// prober didn't report one, per spec §4.4.
func DeriveChannelLayout(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	case 3:
		return "2.1"
	case 4:
		return "quad"
	case 5:
		return "5.0"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		if channels <= 0 {
			return ""
		}
		// e.g. "10ch" for anything outside the named layouts above.
		return strconv.Itoa(channels) + "ch"
	}
}
