package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddToHistoryThenDuplicateYieldsSingleHeadEntry(t *testing.T) {
	m := New(t.TempDir(), 10, 100)
	e := Entry{}
	e.OriginalPath = "/a.mp4"

	m.AddToHistory(e)
	m.AddToHistory(e)

	playback := m.Playback()
	require.Len(t, playback, 1)
}

func TestAddToHistorySkipsFromHistoryEntries(t *testing.T) {
	m := New(t.TempDir(), 10, 100)
	e := Entry{FromHistory: true}
	e.OriginalPath = "/a.mp4"

	m.AddToHistory(e)
	require.Empty(t, m.Playback())
}

func TestGetPreviousVideoRemovesFromBothTiers(t *testing.T) {
	m := New(t.TempDir(), 10, 100)
	e := Entry{}
	e.OriginalPath = "/a.mp4"
	m.AddToHistory(e)

	got, ok := m.GetPreviousVideo()
	require.True(t, ok)
	require.Equal(t, "/a.mp4", got.OriginalPath)
	require.Empty(t, m.Playback())
	require.Empty(t, m.Persisted())
}

func TestGetPreviousVideoOrderIsLIFO(t *testing.T) {
	m := New(t.TempDir(), 10, 100)
	e1 := Entry{}
	e1.OriginalPath = "/v1.mp4"
	e2 := Entry{}
	e2.OriginalPath = "/v2.mp4"

	m.AddToHistory(e1)
	time.Sleep(time.Millisecond)
	m.AddToHistory(e2)

	first, ok := m.GetPreviousVideo()
	require.True(t, ok)
	require.Equal(t, "/v2.mp4", first.OriginalPath)

	second, ok := m.GetPreviousVideo()
	require.True(t, ok)
	require.Equal(t, "/v1.mp4", second.OriginalPath)
}

func TestGetPreviousVideoEmptyReturnsFalse(t *testing.T) {
	m := New(t.TempDir(), 10, 100)
	_, ok := m.GetPreviousVideo()
	require.False(t, ok)
}

func TestPlaybackCapacityClamps(t *testing.T) {
	m := New(t.TempDir(), 2, 100)
	for i := 0; i < 5; i++ {
		e := Entry{}
		e.OriginalPath = string(rune('a' + i))
		m.AddToHistory(e)
	}
	require.Len(t, m.Playback(), 2)
}

func TestNoDuplicateEntryByOriginalPathAcrossTiers(t *testing.T) {
	m := New(t.TempDir(), 10, 10)
	e := Entry{}
	e.OriginalPath = "/dup.mp4"
	m.AddToHistory(e)
	m.AddToHistory(e)
	m.AddToHistory(e)

	seen := map[string]int{}
	for _, entry := range m.Playback() {
		seen[entry.OriginalPath]++
	}
	for _, entry := range m.Persisted() {
		seen[entry.OriginalPath]++
	}
	require.Equal(t, 2, seen["/dup.mp4"]) // one per tier, never duplicated within a tier
}

func TestSaveThenLoadPersistedRoundTrips(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, 10, 100)
	e := Entry{}
	e.OriginalPath = "/a.mp4"
	m.AddToHistory(e)
	require.NoError(t, m.Save())

	reloaded := New(dir, 10, 100)
	require.NoError(t, reloaded.LoadPersisted())
	require.Len(t, reloaded.Persisted(), 1)
	require.Equal(t, "/a.mp4", reloaded.Persisted()[0].OriginalPath)
}
