// Package config loads, validates, hashes, and hot-reloads the jukebox's
// YAML configuration file, deep-merged over built-in defaults (spec §4.1).
package config

import "time"

// FileConfig is the YAML-decoded shape of the user's config file. Pointer
// fields distinguish "not set" (inherit default) from "explicitly set to
// the zero value", mirroring the teacher's merge convention.
type FileConfig struct {
	Directories         []string                   `yaml:"directories,omitempty"`
	SeasonalDirectories []SeasonalDirectoryConfig   `yaml:"seasonalDirectories,omitempty"`
	Video               *VideoConfig               `yaml:"video,omitempty"`
	Audio               *AudioConfig               `yaml:"audio,omitempty"`
	Performance         *PerformanceConfig         `yaml:"performance,omitempty"`
	Timeouts            *TimeoutsConfig            `yaml:"timeouts,omitempty"`
	Retries             *RetriesConfig             `yaml:"retries,omitempty"`
	Files               *FilesConfig               `yaml:"files,omitempty"`
	Network             *NetworkConfig             `yaml:"network,omitempty"`
	System              *SystemConfig              `yaml:"system,omitempty"`
}

// SeasonalDirectoryConfig is one seasonal bucket (spec §3 SeasonalConfig).
type SeasonalDirectoryConfig struct {
	Directory  string         `yaml:"directory" json:"directory"`
	Likelihood float64        `yaml:"likelihood" json:"likelihood"`
	Conditions TimeConditions `yaml:"conditions" json:"conditions"`
}

// TimeConditions mirrors internal/timecond.Condition, duplicated here so
// the config package has no import-cycle dependency on its consumers;
// internal/videoindex copies it field by field into a timecond.Condition.
type TimeConditions struct {
	DayOfWeek    []int      `yaml:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"`
	HourRange    *[2]int    `yaml:"hourRange,omitempty" json:"hourRange,omitempty"`
	Hour         []int      `yaml:"hour,omitempty" json:"hour,omitempty"`
	Minute       []int      `yaml:"minute,omitempty" json:"minute,omitempty"`
	MinuteParity string     `yaml:"minuteParity,omitempty" json:"minuteParity,omitempty"`
	DayOfMonth   []int      `yaml:"dayOfMonth,omitempty" json:"dayOfMonth,omitempty"`
	Month        []int      `yaml:"month,omitempty" json:"month,omitempty"`
	Year         []int      `yaml:"year,omitempty" json:"year,omitempty"`
	DateRange    *[2]string `yaml:"dateRange,omitempty" json:"dateRange,omitempty"`
}

// VideoConfig groups queue sizing and index refresh settings.
type VideoConfig struct {
	PreprocessedQueueSize                *int           `yaml:"preprocessedQueueSize,omitempty"`
	PlaybackQueueSize                     *int           `yaml:"playbackQueueSize,omitempty"`
	PlaybackQueueInitializationThreshold  *int           `yaml:"playbackQueueInitializationThreshold,omitempty"`
	PlaybackHistorySize                   *int           `yaml:"playbackHistorySize,omitempty"`
	PersistedHistorySize                  *int           `yaml:"persistedHistorySize,omitempty"`
	UpdateInterval                        *time.Duration `yaml:"updateInterval,omitempty"`
	QueueMonitorInterval                  *time.Duration `yaml:"queueMonitorInterval,omitempty"`
	QueueCriticalMonitorInterval          *time.Duration `yaml:"queueCriticalMonitorInterval,omitempty"`
}

// NormalizationConfig controls loudnorm parameters (spec §4.5).
type NormalizationConfig struct {
	Enabled     *bool              `yaml:"enabled,omitempty"`
	Strength    string             `yaml:"strength,omitempty"` // preset name, expanded then overridden
	Presets     map[string]LoudnessPreset `yaml:"presets,omitempty"`
	TargetLUFS  *float64           `yaml:"targetLUFS,omitempty"`
	TruePeak    *float64           `yaml:"truePeak,omitempty"`
	LRA         *float64           `yaml:"LRA,omitempty"`
	DualMono    *bool              `yaml:"dualMono,omitempty"`
}

// LoudnessPreset is one named normalization preset.
type LoudnessPreset struct {
	I        float64 `yaml:"I"`
	TP       float64 `yaml:"TP"`
	LRA      float64 `yaml:"LRA"`
	DualMono bool    `yaml:"dualMono"`
}

// StereoUpmixingConfig controls mono/stereo -> 5.1 pan levels.
type StereoUpmixingConfig struct {
	RearChannelLevel   *float64 `yaml:"rearChannelLevel,omitempty"`
	CenterChannelLevel *float64 `yaml:"centerChannelLevel,omitempty"`
	LFEChannelLevel    *float64 `yaml:"lfeChannelLevel,omitempty"`
}

// CodecPreferencesConfig controls output codec/bitrate selection.
type CodecPreferencesConfig struct {
	Stereo               string `yaml:"stereo,omitempty"`
	Multichannel         string `yaml:"multichannel,omitempty"`
	StereoBitrate        string `yaml:"stereoBitrate,omitempty"`
	MultichannelBitrate  string `yaml:"multichannelBitrate,omitempty"`
}

// CompatibilityConfig controls fallback/force behavior.
type CompatibilityConfig struct {
	ForceAAC                      *bool  `yaml:"forceAAC,omitempty"`
	PreserveOriginalIfMultichannel *bool `yaml:"preserveOriginalIfMultichannel,omitempty"`
	CompatibilityMode             string `yaml:"compatibilityMode,omitempty"` // "", "stereo", "auto"
	FallbackToStereo               *bool `yaml:"fallbackToStereo,omitempty"`
}

// AudioConfig groups every audio-processing knob (spec §4.5, §6).
type AudioConfig struct {
	Enabled51Processing   *bool                   `yaml:"enabled51Processing,omitempty"`
	ForceOutputChannels   *int                    `yaml:"forceOutputChannels,omitempty"`
	Normalization         *NormalizationConfig    `yaml:"normalization,omitempty"`
	StereoUpmixing        *StereoUpmixingConfig   `yaml:"stereoUpmixing,omitempty"`
	CodecPreferences      *CodecPreferencesConfig `yaml:"codecPreferences,omitempty"`
	Compatibility         *CompatibilityConfig    `yaml:"compatibility,omitempty"`
}

// CPULimitingConfig throttles the transcoder (spec §4.5 performance throttling).
type CPULimitingConfig struct {
	Enabled          *bool `yaml:"enabled,omitempty"`
	MaxThreads       *int  `yaml:"maxThreads,omitempty"`
	ProcessingDelay  *int  `yaml:"processingDelay,omitempty"` // ms
	ThreadQueueSize  *int  `yaml:"threadQueueSize,omitempty"`
	Priority         string `yaml:"priority,omitempty"`
}

// PerformancePreset is a named ffmpeg preset bundle selected by Mode.
type PerformancePreset struct {
	Preset string `yaml:"preset"`
}

// PerformanceConfig controls ffmpeg preset selection and CPU throttling.
type PerformanceConfig struct {
	Mode        string                       `yaml:"mode,omitempty"` // unknown -> "balanced"
	Presets     map[string]PerformancePreset `yaml:"presets,omitempty"`
	CPULimiting *CPULimitingConfig           `yaml:"cpuLimiting,omitempty"`
}

// TimeoutsConfig groups every operation timeout.
type TimeoutsConfig struct {
	VideoLoad *time.Duration `yaml:"videoLoad,omitempty"` // spec: ~10s
	Probe     *time.Duration `yaml:"probe,omitempty"`
	Transcode *time.Duration `yaml:"transcode,omitempty"`
}

// RetriesConfig groups retry budgets.
type RetriesConfig struct {
	MaxInitializationAttempts *int           `yaml:"maxInitializationAttempts,omitempty"`
	InitialBackoff            *time.Duration `yaml:"initialBackoff,omitempty"`
	MaxBackoff                *time.Duration `yaml:"maxBackoff,omitempty"`
	InitializationTotalBudget *time.Duration `yaml:"initializationTotalBudget,omitempty"` // spec: ~2min
}

// FilesConfig groups file-type recognition.
type FilesConfig struct {
	SupportedVideoExtensions []string `yaml:"supportedVideoExtensions,omitempty"`
}

// ServerConfig groups HTTP listen settings.
type ServerConfig struct {
	Host           string `yaml:"host,omitempty"`
	Port           *int   `yaml:"port,omitempty"`
	AutoOpenBrowser *bool `yaml:"autoOpenBrowser,omitempty"`
}

// NetworkConfig groups the HTTP server section.
type NetworkConfig struct {
	Server *ServerConfig `yaml:"server,omitempty"`
}

// SystemConfig carries internal bookkeeping read from the file; nothing in
// the module writes it back.
type SystemConfig struct {
	LastConfigHash string `yaml:"lastConfigHash,omitempty"`
}
