package statestore

import (
	"fmt"
	"path/filepath"
)

const sqliteFile = "queue-state.sqlite"

// Open selects a Backend by name, grounded on the teacher's
// OpenStateStore(backend, path) factory switch
// (internal/v3/store/factory.go): "" and "json" select the default
// file-based backend, "sqlite" selects the embedded durable store.
func Open(backend, cacheDir string) (Backend, error) {
	switch backend {
	case "", "json":
		return NewJSONBackend(cacheDir)
	case "sqlite":
		return NewSQLiteBackend(filepath.Join(cacheDir, sqliteFile))
	default:
		return nil, fmt.Errorf("statestore: unknown backend %q", backend)
	}
}
