package videoindex

import (
	"context"
	"sync"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/log"
)

// Index is the in-memory, mutex-protected regular + seasonal video index,
// backed by a Store for persistence.
type Index struct {
	mu       sync.RWMutex
	regular  []VideoEntry
	seasonal map[string][]VideoEntry

	store *Store
}

// New constructs an Index backed by the given cache directory.
func New(cacheDir string) *Index {
	return &Index{store: NewStore(cacheDir)}
}

// LoadFromDisk populates the index from the persisted JSON files, if
// present. Missing files leave the in-memory index empty, which
// NeedsRebuild will detect.
func (idx *Index) LoadFromDisk() error {
	regular, err := idx.store.LoadRegular()
	if err != nil {
		return err
	}
	seasonal, err := idx.store.LoadSeasonal()
	if err != nil {
		return err
	}
	idx.mu.Lock()
	idx.regular = regular
	idx.seasonal = seasonal
	idx.mu.Unlock()
	return nil
}

// NeedsRebuild implements the rebuild decision of spec §4.2: rebuild
// when the regular index is missing, the seasonal index is missing, or
// the configured seasonal directory set no longer matches the cached
// one. Config-hash-changed is evaluated by the caller (C13/app layer),
// which also has the previous hash.
func (idx *Index) NeedsRebuild(configuredSeasonalDirs []string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.regular == nil {
		return true
	}
	if idx.seasonal == nil {
		return true
	}
	if len(idx.seasonal) != len(configuredSeasonalDirs) {
		return true
	}
	for _, d := range configuredSeasonalDirs {
		if _, ok := idx.seasonal[d]; !ok {
			return true
		}
	}
	return false
}

// Rebuild rescans every configured directory and seasonal directory,
// replaces the in-memory index, and persists both files.
func (idx *Index) Rebuild(ctx context.Context, directories []string, seasonal []config.SeasonalDirectoryConfig, extensions []string, onProgress func(ScanProgress)) error {
	regular := ScanDirectories(ctx, directories, extensions, onProgress)

	seasonalDirs := make([]string, len(seasonal))
	for i, s := range seasonal {
		seasonalDirs[i] = s.Directory
	}
	seasonalEntries := ScanSeasonal(ctx, seasonalDirs, extensions, onProgress)

	idx.mu.Lock()
	idx.regular = regular
	idx.seasonal = seasonalEntries
	idx.mu.Unlock()

	if err := idx.store.SaveRegular(regular); err != nil {
		return err
	}
	if err := idx.store.SaveSeasonal(seasonalEntries); err != nil {
		return err
	}

	log.WithComponent("videoindex").Info().
		Int("regular_count", len(regular)).
		Int("seasonal_directories", len(seasonalEntries)).
		Msg("video index rebuilt")
	return nil
}

// Count returns the number of regular entries.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.regular)
}

// RegularEntries returns a defensive copy of the regular index.
func (idx *Index) RegularEntries() []VideoEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]VideoEntry, len(idx.regular))
	copy(out, idx.regular)
	return out
}

// SeasonalEntries returns a defensive copy of one seasonal bucket.
func (idx *Index) SeasonalEntries(directory string) []VideoEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	src := idx.seasonal[directory]
	out := make([]VideoEntry, len(src))
	copy(out, src)
	return out
}
