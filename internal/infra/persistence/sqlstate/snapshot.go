// Package sqlstate stores the record tables in a two-column SQL table,
// state(bucket, payload), one encoded table per bucket. The SQL backends
// differ only in driver, blob column type and placeholder syntax, which a
// Dialect captures.
package sqlstate

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"housingcore/internal/records"
)

// Dialect carries the statements that vary between engines.
type Dialect struct {
	Name   string
	Create string
	Upsert string
}

// SQLite uses positional ? placeholders and a BLOB payload.
var SQLite = Dialect{
	Name:   "sqlite",
	Create: `CREATE TABLE IF NOT EXISTS state (bucket TEXT PRIMARY KEY, payload BLOB NOT NULL)`,
	Upsert: `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
}

// Postgres uses numbered placeholders and a BYTEA payload.
var Postgres = Dialect{
	Name:   "postgres",
	Create: `CREATE TABLE IF NOT EXISTS state (bucket TEXT PRIMARY KEY, payload BYTEA NOT NULL)`,
	Upsert: `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`,
}

const selectAll = `SELECT bucket, payload FROM state`

var _ records.Backend = (*Snapshot)(nil)

// Snapshot is a records.Backend over an open database. Saves are
// serialised and each one rewrites every bucket in a single transaction.
type Snapshot struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

// Open ensures the state table exists. On failure db is left open for the
// caller to close.
func Open(ctx context.Context, db *sql.DB, d Dialect) (*Snapshot, error) {
	if _, err := db.ExecContext(ctx, d.Create); err != nil {
		return nil, fmt.Errorf("%s: create state table: %w", d.Name, err)
	}
	return &Snapshot{db: db, dialect: d}, nil
}

// Load decodes every bucket named after a record kind. Other buckets and
// empty payloads are skipped.
func (s *Snapshot) Load(ctx context.Context) (records.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, selectAll)
	if err != nil {
		return records.Dataset{}, fmt.Errorf("%s: select state: %w", s.dialect.Name, err)
	}
	defer func() { _ = rows.Close() }()
	tables := make(map[records.Kind][]byte, len(records.Kinds))
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return records.Dataset{}, fmt.Errorf("%s: scan state: %w", s.dialect.Name, err)
		}
		if len(payload) > 0 {
			tables[records.Kind(bucket)] = payload
		}
	}
	if err := rows.Err(); err != nil {
		return records.Dataset{}, fmt.Errorf("%s: iterate state: %w", s.dialect.Name, err)
	}
	return records.DecodeDataset(tables)
}

// Save upserts one bucket per record kind.
func (s *Snapshot) Save(ctx context.Context, d records.Dataset) error {
	tables, err := records.EncodeDataset(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.dialect.Name, err)
	}
	for _, kind := range records.Kinds {
		if _, err := tx.ExecContext(ctx, s.dialect.Upsert, string(kind), tables[kind]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: upsert %s: %w", s.dialect.Name, kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.dialect.Name, err)
	}
	return nil
}

// DB returns the underlying handle.
func (s *Snapshot) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Snapshot) Close() error { return s.db.Close() }
