package videoindex

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopreel/loopreel/internal/config"
)

func writeVideoFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestScanDirectoriesCollectsVideoFiles(t *testing.T) {
	dir := t.TempDir()
	writeVideoFile(t, dir, "a.mp4")
	writeVideoFile(t, dir, "b.txt")
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeVideoFile(t, sub, "c.mkv")

	entries := ScanDirectories(context.Background(), []string{dir}, []string{".mp4", ".mkv"}, nil)
	require.Len(t, entries, 2)
}

func TestScanDirectoriesSkipsMissingDirectory(t *testing.T) {
	entries := ScanDirectories(context.Background(), []string{"/nonexistent/path/xyz"}, []string{".mp4"}, nil)
	require.Empty(t, entries)
}

func TestIndexNeedsRebuildWhenFilesMissing(t *testing.T) {
	idx := New(t.TempDir())
	require.True(t, idx.NeedsRebuild(nil))
}

func TestIndexRebuildPersistsAndReloads(t *testing.T) {
	cacheDir := t.TempDir()
	libDir := t.TempDir()
	writeVideoFile(t, libDir, "a.mp4")

	idx := New(cacheDir)
	err := idx.Rebuild(context.Background(), []string{libDir}, nil, []string{".mp4"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, idx.Count())

	reloaded := New(cacheDir)
	require.NoError(t, reloaded.LoadFromDisk())
	require.Equal(t, 1, reloaded.Count())
	require.False(t, reloaded.NeedsRebuild(nil))
}

func TestGetRandomVideoFallsBackToRegularWithNoSeasonal(t *testing.T) {
	cacheDir := t.TempDir()
	libDir := t.TempDir()
	writeVideoFile(t, libDir, "a.mp4")

	idx := New(cacheDir)
	require.NoError(t, idx.Rebuild(context.Background(), []string{libDir}, nil, []string{".mp4"}, nil))

	v, ok := idx.GetRandomVideo(nil, nil, time.Now(), rand.New(rand.NewPCG(1, 2)))
	require.True(t, ok)
	require.Equal(t, "a.mp4", v.Filename)
}

func TestGetRandomVideoExcludesPaths(t *testing.T) {
	cacheDir := t.TempDir()
	libDir := t.TempDir()
	path := writeVideoFile(t, libDir, "a.mp4")

	idx := New(cacheDir)
	require.NoError(t, idx.Rebuild(context.Background(), []string{libDir}, nil, []string{".mp4"}, nil))

	_, ok := idx.GetRandomVideo(nil, map[string]bool{path: true}, time.Now(), rand.New(rand.NewPCG(1, 2)))
	require.False(t, ok)
}

func TestGetRandomVideoLikelihoodOneAlwaysSelectsSeasonal(t *testing.T) {
	cacheDir := t.TempDir()
	seasonalDir := t.TempDir()
	writeVideoFile(t, seasonalDir, "s1.mp4")
	writeVideoFile(t, seasonalDir, "s2.mp4")

	idx := New(cacheDir)
	seasonalCfg := []config.SeasonalDirectoryConfig{
		{Directory: seasonalDir, Likelihood: 1, Conditions: config.TimeConditions{DayOfWeek: []int{0, 6}}},
	}
	require.NoError(t, idx.Rebuild(context.Background(), nil, seasonalCfg, []string{".mp4"}, nil))

	saturday := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Saturday, saturday.Weekday())

	for i := 0; i < 50; i++ {
		v, ok := idx.GetRandomVideo(seasonalCfg, nil, saturday, rand.New(rand.NewPCG(uint64(i), 7)))
		require.True(t, ok)
		require.Equal(t, seasonalDir, v.SeasonalDirectory)
	}
}

func TestGetRandomVideoLikelihoodZeroNeverSelectsSeasonal(t *testing.T) {
	cacheDir := t.TempDir()
	seasonalDir := t.TempDir()
	writeVideoFile(t, seasonalDir, "s1.mp4")
	libDir := t.TempDir()
	writeVideoFile(t, libDir, "a.mp4")

	idx := New(cacheDir)
	seasonalCfg := []config.SeasonalDirectoryConfig{
		{Directory: seasonalDir, Likelihood: 0, Conditions: config.TimeConditions{}},
	}
	require.NoError(t, idx.Rebuild(context.Background(), []string{libDir}, seasonalCfg, []string{".mp4"}, nil))

	now := time.Now()
	for i := 0; i < 50; i++ {
		v, ok := idx.GetRandomVideo(seasonalCfg, nil, now, rand.New(rand.NewPCG(uint64(i), 3)))
		require.True(t, ok)
		require.Empty(t, v.SeasonalDirectory)
	}
}

func TestGetRandomVideoConditionsFalseOnWeekday(t *testing.T) {
	cacheDir := t.TempDir()
	seasonalDir := t.TempDir()
	writeVideoFile(t, seasonalDir, "s1.mp4")

	idx := New(cacheDir)
	seasonalCfg := []config.SeasonalDirectoryConfig{
		{Directory: seasonalDir, Likelihood: 1, Conditions: config.TimeConditions{DayOfWeek: []int{0, 6}}},
	}
	require.NoError(t, idx.Rebuild(context.Background(), nil, seasonalCfg, []string{".mp4"}, nil))

	monday := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	_, ok := idx.GetRandomVideo(seasonalCfg, nil, monday, rand.New(rand.NewPCG(1, 2)))
	require.False(t, ok)
}
