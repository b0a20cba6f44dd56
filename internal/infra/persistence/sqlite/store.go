// Package sqlite keeps the record tables in a local SQLite file through the
// pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"housingcore/internal/infra/persistence/sqlstate"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultPath is used when NewStore receives an empty path.
const DefaultPath = "housingcore.db"

// Store is a sqlstate.Snapshot bound to a database file.
type Store struct {
	*sqlstate.Snapshot
	path string
}

// NewStore opens or creates the database at path, creating parent
// directories as needed.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: create %s: %w", dir, err)
		}
	}
	db, err := sql.Open(sqlstate.SQLite.Name, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	snap, err := sqlstate.Open(context.Background(), db, sqlstate.SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Snapshot: snap, path: path}, nil
}

// Path returns the database file in use.
func (s *Store) Path() string { return s.path }
