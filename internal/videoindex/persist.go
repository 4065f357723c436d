package videoindex

import (
	"os"
	"path/filepath"
	"time"

	"github.com/loopreel/loopreel/internal/fsutil"
)

const (
	regularIndexFile  = "video-index.json"
	seasonalIndexFile = "seasonal-video-index.json"
)

// Store persists and loads the two index JSON files under a cache
// directory, mirroring the teacher's single-writer-per-file convention.
type Store struct {
	cacheDir string
}

// NewStore returns a Store rooted at cacheDir.
func NewStore(cacheDir string) *Store {
	return &Store{cacheDir: cacheDir}
}

func (s *Store) regularPath() string  { return filepath.Join(s.cacheDir, regularIndexFile) }
func (s *Store) seasonalPath() string { return filepath.Join(s.cacheDir, seasonalIndexFile) }

// LoadRegular reads video-index.json. A missing file is not an error —
// callers treat a nil slice as "needs rebuild".
func (s *Store) LoadRegular() ([]VideoEntry, error) {
	var entries []VideoEntry
	if err := fsutil.ReadJSON(s.regularPath(), &entries); err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

// SaveRegular atomically writes video-index.json.
func (s *Store) SaveRegular(entries []VideoEntry) error {
	if entries == nil {
		entries = []VideoEntry{}
	}
	return fsutil.WriteJSON(s.regularPath(), entries)
}

// LoadSeasonal reads seasonal-video-index.json. A missing file returns a
// nil map, signalling "needs rebuild".
func (s *Store) LoadSeasonal() (map[string][]VideoEntry, error) {
	var file seasonalFile
	if err := fsutil.ReadJSON(s.seasonalPath(), &file); err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if file.SeasonalVideos == nil {
		return nil, nil
	}
	return file.SeasonalVideos, nil
}

// SaveSeasonal atomically writes seasonal-video-index.json.
func (s *Store) SaveSeasonal(seasonal map[string][]VideoEntry) error {
	if seasonal == nil {
		seasonal = map[string][]VideoEntry{}
	}
	return fsutil.WriteJSON(s.seasonalPath(), seasonalFile{
		SavedAt:        nowFunc(),
		SeasonalVideos: seasonal,
	})
}

// nowFunc is indirected so tests can reach for a fixed clock if needed;
// production always uses wall-clock time.
var nowFunc = func() time.Time { return time.Now() }

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}
