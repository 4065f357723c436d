package config

// Merge deep-merges override onto base and returns the result. base is
// typically Defaults(); override is typically the YAML-decoded user file.
// A nil pointer or empty slice/map in override means "inherit base"; a
// non-nil pointer always wins even if it points at a zero value, so users
// can explicitly disable a bool default (spec §4.1).
func Merge(base, override FileConfig) FileConfig {
	out := base

	if len(override.Directories) > 0 {
		out.Directories = override.Directories
	}
	if len(override.SeasonalDirectories) > 0 {
		out.SeasonalDirectories = override.SeasonalDirectories
	}
	out.Video = mergeVideo(base.Video, override.Video)
	out.Audio = mergeAudio(base.Audio, override.Audio)
	out.Performance = mergePerformance(base.Performance, override.Performance)
	out.Timeouts = mergeTimeouts(base.Timeouts, override.Timeouts)
	out.Retries = mergeRetries(base.Retries, override.Retries)
	out.Files = mergeFiles(base.Files, override.Files)
	out.Network = mergeNetwork(base.Network, override.Network)
	out.System = mergeSystem(base.System, override.System)

	return out
}

func mergeVideo(base, o *VideoConfig) *VideoConfig {
	if base == nil {
		base = &VideoConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.PreprocessedQueueSize != nil {
		out.PreprocessedQueueSize = o.PreprocessedQueueSize
	}
	if o.PlaybackQueueSize != nil {
		out.PlaybackQueueSize = o.PlaybackQueueSize
	}
	if o.PlaybackQueueInitializationThreshold != nil {
		out.PlaybackQueueInitializationThreshold = o.PlaybackQueueInitializationThreshold
	}
	if o.PlaybackHistorySize != nil {
		out.PlaybackHistorySize = o.PlaybackHistorySize
	}
	if o.PersistedHistorySize != nil {
		out.PersistedHistorySize = o.PersistedHistorySize
	}
	if o.UpdateInterval != nil {
		out.UpdateInterval = o.UpdateInterval
	}
	if o.QueueMonitorInterval != nil {
		out.QueueMonitorInterval = o.QueueMonitorInterval
	}
	if o.QueueCriticalMonitorInterval != nil {
		out.QueueCriticalMonitorInterval = o.QueueCriticalMonitorInterval
	}
	return &out
}

func mergeAudio(base, o *AudioConfig) *AudioConfig {
	if base == nil {
		base = &AudioConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.Enabled51Processing != nil {
		out.Enabled51Processing = o.Enabled51Processing
	}
	if o.ForceOutputChannels != nil {
		out.ForceOutputChannels = o.ForceOutputChannels
	}
	out.Normalization = mergeNormalization(base.Normalization, o.Normalization)
	out.StereoUpmixing = mergeStereoUpmixing(base.StereoUpmixing, o.StereoUpmixing)
	out.CodecPreferences = mergeCodecPreferences(base.CodecPreferences, o.CodecPreferences)
	out.Compatibility = mergeCompatibility(base.Compatibility, o.Compatibility)
	return &out
}

func mergeNormalization(base, o *NormalizationConfig) *NormalizationConfig {
	if base == nil {
		base = &NormalizationConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.Enabled != nil {
		out.Enabled = o.Enabled
	}
	if o.Strength != "" {
		out.Strength = o.Strength
	}
	if len(o.Presets) > 0 {
		merged := map[string]LoudnessPreset{}
		for k, v := range base.Presets {
			merged[k] = v
		}
		for k, v := range o.Presets {
			merged[k] = v
		}
		out.Presets = merged
	}
	if o.TargetLUFS != nil {
		out.TargetLUFS = o.TargetLUFS
	}
	if o.TruePeak != nil {
		out.TruePeak = o.TruePeak
	}
	if o.LRA != nil {
		out.LRA = o.LRA
	}
	if o.DualMono != nil {
		out.DualMono = o.DualMono
	}
	return &out
}

func mergeStereoUpmixing(base, o *StereoUpmixingConfig) *StereoUpmixingConfig {
	if base == nil {
		base = &StereoUpmixingConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.RearChannelLevel != nil {
		out.RearChannelLevel = o.RearChannelLevel
	}
	if o.CenterChannelLevel != nil {
		out.CenterChannelLevel = o.CenterChannelLevel
	}
	if o.LFEChannelLevel != nil {
		out.LFEChannelLevel = o.LFEChannelLevel
	}
	return &out
}

func mergeCodecPreferences(base, o *CodecPreferencesConfig) *CodecPreferencesConfig {
	if base == nil {
		base = &CodecPreferencesConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.Stereo != "" {
		out.Stereo = o.Stereo
	}
	if o.Multichannel != "" {
		out.Multichannel = o.Multichannel
	}
	if o.StereoBitrate != "" {
		out.StereoBitrate = o.StereoBitrate
	}
	if o.MultichannelBitrate != "" {
		out.MultichannelBitrate = o.MultichannelBitrate
	}
	return &out
}

func mergeCompatibility(base, o *CompatibilityConfig) *CompatibilityConfig {
	if base == nil {
		base = &CompatibilityConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.ForceAAC != nil {
		out.ForceAAC = o.ForceAAC
	}
	if o.PreserveOriginalIfMultichannel != nil {
		out.PreserveOriginalIfMultichannel = o.PreserveOriginalIfMultichannel
	}
	if o.CompatibilityMode != "" {
		out.CompatibilityMode = o.CompatibilityMode
	}
	if o.FallbackToStereo != nil {
		out.FallbackToStereo = o.FallbackToStereo
	}
	return &out
}

func mergePerformance(base, o *PerformanceConfig) *PerformanceConfig {
	if base == nil {
		base = &PerformanceConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.Mode != "" {
		out.Mode = o.Mode
	}
	if len(o.Presets) > 0 {
		merged := map[string]PerformancePreset{}
		for k, v := range base.Presets {
			merged[k] = v
		}
		for k, v := range o.Presets {
			merged[k] = v
		}
		out.Presets = merged
	}
	if base.CPULimiting == nil {
		base.CPULimiting = &CPULimitingConfig{}
	}
	cl := *base.CPULimiting
	if o.CPULimiting != nil {
		oc := o.CPULimiting
		if oc.Enabled != nil {
			cl.Enabled = oc.Enabled
		}
		if oc.MaxThreads != nil {
			cl.MaxThreads = oc.MaxThreads
		}
		if oc.ProcessingDelay != nil {
			cl.ProcessingDelay = oc.ProcessingDelay
		}
		if oc.ThreadQueueSize != nil {
			cl.ThreadQueueSize = oc.ThreadQueueSize
		}
		if oc.Priority != "" {
			cl.Priority = oc.Priority
		}
	}
	out.CPULimiting = &cl
	return &out
}

func mergeTimeouts(base, o *TimeoutsConfig) *TimeoutsConfig {
	if base == nil {
		base = &TimeoutsConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.VideoLoad != nil {
		out.VideoLoad = o.VideoLoad
	}
	if o.Probe != nil {
		out.Probe = o.Probe
	}
	if o.Transcode != nil {
		out.Transcode = o.Transcode
	}
	return &out
}

func mergeRetries(base, o *RetriesConfig) *RetriesConfig {
	if base == nil {
		base = &RetriesConfig{}
	}
	out := *base
	if o == nil {
		return &out
	}
	if o.MaxInitializationAttempts != nil {
		out.MaxInitializationAttempts = o.MaxInitializationAttempts
	}
	if o.InitialBackoff != nil {
		out.InitialBackoff = o.InitialBackoff
	}
	if o.MaxBackoff != nil {
		out.MaxBackoff = o.MaxBackoff
	}
	if o.InitializationTotalBudget != nil {
		out.InitializationTotalBudget = o.InitializationTotalBudget
	}
	return &out
}

func mergeFiles(base, o *FilesConfig) *FilesConfig {
	if base == nil {
		base = &FilesConfig{}
	}
	out := *base
	if o != nil && len(o.SupportedVideoExtensions) > 0 {
		out.SupportedVideoExtensions = o.SupportedVideoExtensions
	}
	return &out
}

func mergeNetwork(base, o *NetworkConfig) *NetworkConfig {
	if base == nil {
		base = &NetworkConfig{}
	}
	out := *base
	baseServer := base.Server
	if baseServer == nil {
		baseServer = &ServerConfig{}
	}
	server := *baseServer
	if o != nil && o.Server != nil {
		if o.Server.Host != "" {
			server.Host = o.Server.Host
		}
		if o.Server.Port != nil {
			server.Port = o.Server.Port
		}
		if o.Server.AutoOpenBrowser != nil {
			server.AutoOpenBrowser = o.Server.AutoOpenBrowser
		}
	}
	out.Server = &server
	return &out
}

func mergeSystem(base, o *SystemConfig) *SystemConfig {
	if base == nil {
		base = &SystemConfig{}
	}
	out := *base
	if o != nil && o.LastConfigHash != "" {
		out.LastConfigHash = o.LastConfigHash
	}
	return &out
}
