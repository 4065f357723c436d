package transcoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopreel/loopreel/internal/config"
)

func TestComputeCrossfadeTimingBoundary(t *testing.T) {
	nine := 9.0
	require.Nil(t, ComputeCrossfadeTiming(&nine))

	ten := 10.0
	timing := ComputeCrossfadeTiming(&ten)
	require.NotNil(t, timing)
	require.InDelta(t, 1.0, timing.Duration, 0.01)
	require.InDelta(t, 8.0, timing.StartTime, 0.01)
}

func TestComputeCrossfadeTimingNilDuration(t *testing.T) {
	require.Nil(t, ComputeCrossfadeTiming(nil))
}

func TestComputeCrossfadeTimingClampsDuration(t *testing.T) {
	d := 100.0
	timing := ComputeCrossfadeTiming(&d)
	require.NotNil(t, timing)
	require.Equal(t, 3.0, timing.Duration) // min(3, 0.1*100)=3
	require.Equal(t, 96.0, timing.StartTime)
}

func TestBuildAudioPlanMonoUpmixesTo51(t *testing.T) {
	audio := config.Defaults().Audio
	plan := BuildAudioPlan(1, "mono", *audio)
	require.Equal(t, 6, plan.OutputChannels)
	require.Equal(t, "5.1", plan.OutputLayout)
	require.Contains(t, plan.Filter, "pan=5.1")
}

func TestBuildAudioPlanStereoUpmixesTo51(t *testing.T) {
	audio := config.Defaults().Audio
	plan := BuildAudioPlan(2, "stereo", *audio)
	require.Equal(t, 6, plan.OutputChannels)
	require.Contains(t, plan.Filter, "pan=5.1")
}

func TestBuildAudioPlanPreservesExisting51(t *testing.T) {
	audio := config.Defaults().Audio
	plan := BuildAudioPlan(6, "5.1", *audio)
	require.Equal(t, 6, plan.OutputChannels)
	require.Equal(t, "5.1", plan.OutputLayout)
	require.NotContains(t, plan.Filter, "pan=")
}

func TestBuildAudioPlanZeroChannelsNoFilter(t *testing.T) {
	audio := config.Defaults().Audio
	plan := BuildAudioPlan(0, "", *audio)
	require.Empty(t, plan.Filter)
	require.Equal(t, "none", plan.Applied)
}

func TestBuildAudioPlanDisabled51ForcesStereo(t *testing.T) {
	audio := config.Defaults().Audio
	disabled := false
	audio.Enabled51Processing = &disabled
	plan := BuildAudioPlan(6, "5.1", *audio)
	require.Equal(t, 2, plan.OutputChannels)
	require.Equal(t, "stereo", plan.OutputLayout)
	require.Equal(t, "stereo-compatible", plan.Applied)
}

func TestBuildAudioPlanForceAACUsesConservativeBitrate(t *testing.T) {
	audio := config.Defaults().Audio
	force := true
	audio.Compatibility.ForceAAC = &force
	plan := BuildAudioPlan(6, "7.1", *audio)
	require.Equal(t, "aac", plan.Codec)
	require.Equal(t, "384k", plan.Bitrate)
}

func TestIsCompatibilityFailureMatchesSubstrings(t *testing.T) {
	require.True(t, isCompatibilityFailure(fakeErr("Invalid channel layout for output")))
	require.True(t, isCompatibilityFailure(fakeErr("loudnorm filter rejected")))
	require.False(t, isCompatibilityFailure(fakeErr("no such file or directory")))
}

type fakeErr string

func (f fakeErr) Error() string { return string(f) }
