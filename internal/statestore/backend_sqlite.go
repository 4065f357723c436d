package statestore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, registered as "sqlite"
)

// sqliteBackend stores the snapshot as a single JSON blob in a one-row
// table, the same role bolt/badger play in the teacher's own
// backend-selectable state store (internal/v3/store/factory.go): an
// embedded, single-file, dependency-free durable store, picked over the
// JSON file when operators want crash-safe fsync semantics from the
// storage engine itself rather than the rename-based atomicity
// internal/fsutil.WriteJSON provides.
type sqliteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (creating if necessary) the single-file sqlite
// database at path holding the latest snapshot.
func NewSQLiteBackend(path string) (Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite state store: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 0),
		data TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = b.db.Exec(
		`INSERT INTO snapshot (id, data) VALUES (0, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Load() (*Snapshot, bool, error) {
	var data string
	err := b.db.QueryRow(`SELECT data FROM snapshot WHERE id = 0`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, true, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
