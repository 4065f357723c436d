package history

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/loopreel/loopreel/internal/fsutil"
	"github.com/loopreel/loopreel/internal/log"
)

const persistedHistoryFile = "persisted-history.json"

// Manager owns both history tiers. All mutation is serialized through
// mu, matching the spec's "history writes from a single client session
// are serialized at C8" ordering guarantee (§5).
type Manager struct {
	mu sync.Mutex

	playback  []Entry // capacity playbackHistorySize, LIFO (index 0 = most recent)
	persisted []Entry // capacity persistedHistorySize, LIFO

	playbackCapacity  int
	persistedCapacity int

	cacheDir string
}

// New constructs an empty Manager. Call LoadPersisted to restore state.
func New(cacheDir string, playbackCapacity, persistedCapacity int) *Manager {
	return &Manager{
		cacheDir:          cacheDir,
		playbackCapacity:  playbackCapacity,
		persistedCapacity: persistedCapacity,
	}
}

func (m *Manager) persistedPath() string {
	return filepath.Join(m.cacheDir, persistedHistoryFile)
}

// LoadPersisted restores the persisted tier from disk as-is: no
// cross-tier dedup pass against the (empty, at startup) playback tier.
// Dedup is enforced only on insert, per the binding Open Question
// decision recorded in DESIGN.md.
func (m *Manager) LoadPersisted() error {
	var file persistedFile
	if err := fsutil.ReadJSON(m.persistedPath(), &file); err != nil {
		if fsutil.Exists(m.persistedPath()) {
			return err
		}
		return nil
	}
	m.mu.Lock()
	m.persisted = file.PersistedHistory
	m.mu.Unlock()
	return nil
}

// SeedPlayback restores the in-memory playback tier, typically from a
// queue-state snapshot (C9) rather than its own file.
func (m *Manager) SeedPlayback(entries []Entry) {
	m.mu.Lock()
	m.playback = entries
	m.mu.Unlock()
}

// AddToHistory implements spec §4.7: skip `_fromHistory` entries;
// otherwise dedup by originalPath against both tiers, unshift to both,
// clamp to capacity, and schedule an asynchronous persist.
func (m *Manager) AddToHistory(v Entry) {
	if v.FromHistory {
		return
	}
	v.AddedToHistoryAt = nowFunc()

	m.mu.Lock()
	m.playback = removeByOriginalPath(m.playback, v.OriginalPath)
	m.persisted = removeByOriginalPath(m.persisted, v.OriginalPath)

	m.playback = clamp(append([]Entry{v}, m.playback...), m.playbackCapacity)
	m.persisted = clamp(append([]Entry{v}, m.persisted...), m.persistedCapacity)
	m.mu.Unlock()

	m.persistAsync()
}

// GetPreviousVideo implements spec §4.7's cross-tier retrieval
// invariant: an entry popped from playback is also removed from
// persisted, so it is never returned twice.
func (m *Manager) GetPreviousVideo() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.playback) > 0 {
		entry := m.playback[0]
		m.playback = m.playback[1:]
		m.persisted = removeByOriginalPath(m.persisted, entry.OriginalPath)
		defer m.persistAsync()
		return entry, true
	}
	if len(m.persisted) > 0 {
		entry := m.persisted[0]
		m.persisted = m.persisted[1:]
		defer m.persistAsync()
		return entry, true
	}
	return Entry{}, false
}

// Playback returns a defensive copy of the in-memory tier.
func (m *Manager) Playback() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.playback))
	copy(out, m.playback)
	return out
}

// Persisted returns a defensive copy of the on-disk tier.
func (m *Manager) Persisted() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.persisted))
	copy(out, m.persisted)
	return out
}

// Save writes the persisted tier to disk synchronously.
func (m *Manager) Save() error {
	m.mu.Lock()
	snapshot := make([]Entry, len(m.persisted))
	copy(snapshot, m.persisted)
	m.mu.Unlock()

	return fsutil.WriteJSON(m.persistedPath(), persistedFile{
		SavedAt:          nowFunc(),
		PersistedHistory: snapshot,
	})
}

// persistAsync fires Save in a background goroutine; failures are
// logged, never surfaced to the caller, matching the fire-and-forget
// persistence the spec describes for history writes.
func (m *Manager) persistAsync() {
	go func() {
		if err := m.Save(); err != nil {
			log.WithComponent("history").Error().Err(err).Msg("failed to persist history")
		}
	}()
}

func removeByOriginalPath(entries []Entry, originalPath string) []Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.OriginalPath != originalPath {
			out = append(out, e)
		}
	}
	return out
}

func clamp(entries []Entry, capacity int) []Entry {
	if capacity > 0 && len(entries) > capacity {
		return entries[:capacity]
	}
	return entries
}

var nowFunc = func() time.Time { return time.Now() }
