package statestore

import (
	"os"
	"path/filepath"

	"github.com/loopreel/loopreel/internal/fsutil"
)

const snapshotFile = "queue-state.json"

// jsonBackend persists the snapshot as a single JSON file under the cache
// directory, atomically rewritten on every Save.
type jsonBackend struct {
	path string
}

// NewJSONBackend opens the default file-based backend (spec §6's
// queue-state.json), grounded on the teacher's JSON-file state
// persistence convention (the same one internal/fsutil.WriteJSON serves
// for internal/history and internal/videoindex).
func NewJSONBackend(cacheDir string) (Backend, error) {
	return &jsonBackend{path: filepath.Join(cacheDir, snapshotFile)}, nil
}

func (b *jsonBackend) Save(snapshot Snapshot) error {
	return fsutil.WriteJSON(b.path, snapshot)
}

func (b *jsonBackend) Load() (*Snapshot, bool, error) {
	if !fsutil.Exists(b.path) {
		return nil, false, nil
	}
	var snapshot Snapshot
	if err := fsutil.ReadJSON(b.path, &snapshot); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &snapshot, true, nil
}

func (b *jsonBackend) Close() error { return nil }
