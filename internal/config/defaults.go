package config

import "time"

func durPtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                     { return &i }
func floatPtr(f float64) *float64           { return &f }
func boolPtr(b bool) *bool                  { return &b }

// Defaults returns the built-in FileConfig that every loaded file is
// deep-merged over (spec §4.1). Every pointer field is non-nil here so
// code reading a merged config never needs to guess a bare zero value.
func Defaults() FileConfig {
	return FileConfig{
		Directories:         []string{},
		SeasonalDirectories: []SeasonalDirectoryConfig{},
		Video: &VideoConfig{
			PreprocessedQueueSize:                intPtr(5),
			PlaybackQueueSize:                    intPtr(20),
			PlaybackQueueInitializationThreshold: intPtr(3),
			PlaybackHistorySize:                  intPtr(10),
			PersistedHistorySize:                 intPtr(5000),
			UpdateInterval:                       durPtr(5 * time.Minute),
			QueueMonitorInterval:                 durPtr(30 * time.Second),
			QueueCriticalMonitorInterval:         durPtr(5 * time.Second),
		},
		Audio: &AudioConfig{
			Enabled51Processing: boolPtr(true),
			ForceOutputChannels: intPtr(0), // 0 = no forcing
			Normalization: &NormalizationConfig{
				Enabled:  boolPtr(true),
				Strength: "standard",
				Presets: map[string]LoudnessPreset{
					"gentle":   {I: -20, TP: -2.0, LRA: 11, DualMono: true},
					"standard": {I: -16, TP: -1.5, LRA: 11, DualMono: true},
					"strong":   {I: -14, TP: -1.0, LRA: 7, DualMono: true},
				},
				TargetLUFS: floatPtr(-16),
				TruePeak:   floatPtr(-1.5),
				LRA:        floatPtr(11),
				DualMono:   boolPtr(true),
			},
			StereoUpmixing: &StereoUpmixingConfig{
				RearChannelLevel:   floatPtr(0.6),
				CenterChannelLevel: floatPtr(0.7),
				LFEChannelLevel:    floatPtr(0.5),
			},
			CodecPreferences: &CodecPreferencesConfig{
				Stereo:              "aac",
				Multichannel:        "eac3",
				StereoBitrate:       "192k",
				MultichannelBitrate: "640k",
			},
			Compatibility: &CompatibilityConfig{
				ForceAAC:                       boolPtr(false),
				PreserveOriginalIfMultichannel: boolPtr(true),
				CompatibilityMode:              "auto",
				FallbackToStereo:               boolPtr(false),
			},
		},
		Performance: &PerformanceConfig{
			Mode: "balanced",
			Presets: map[string]PerformancePreset{
				"quality":  {Preset: "slow"},
				"balanced": {Preset: "medium"},
				"speed":    {Preset: "veryfast"},
			},
			CPULimiting: &CPULimitingConfig{
				Enabled:         boolPtr(false),
				MaxThreads:      intPtr(0), // 0 = ffmpeg default
				ProcessingDelay: intPtr(0),
				ThreadQueueSize: intPtr(512),
				Priority:        "normal",
			},
		},
		Timeouts: &TimeoutsConfig{
			VideoLoad: durPtr(10 * time.Second),
			Probe:     durPtr(15 * time.Second),
			Transcode: durPtr(10 * time.Minute),
		},
		Retries: &RetriesConfig{
			MaxInitializationAttempts: intPtr(5),
			InitialBackoff:            durPtr(1 * time.Second),
			MaxBackoff:                durPtr(30 * time.Second),
			InitializationTotalBudget: durPtr(2 * time.Minute),
		},
		Files: &FilesConfig{
			SupportedVideoExtensions: []string{
				".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v", ".mpg", ".mpeg", ".wmv", ".flv",
			},
		},
		Network: &NetworkConfig{
			Server: &ServerConfig{
				Host:            "0.0.0.0",
				Port:            intPtr(8080),
				AutoOpenBrowser: boolPtr(false),
			},
		},
		System: &SystemConfig{},
	}
}
