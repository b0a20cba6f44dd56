// Package postgres keeps the record tables in a Postgres state table, reached
// through pgx's database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"housingcore/internal/infra/persistence/sqlstate"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// DefaultDSN is dialled when NewStore receives an empty DSN.
const DefaultDSN = "postgres://localhost/housingcore?sslmode=disable"

const driverName = "pgx"

var (
	openMu sync.Mutex
	open   = sql.Open
)

// Store is a sqlstate.Snapshot on a Postgres connection pool.
type Store struct {
	*sqlstate.Snapshot
}

// NewStore connects to dsn, pings it and ensures the state table.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := open(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	snap, err := sqlstate.Open(ctx, db, sqlstate.Postgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Snapshot: snap}, nil
}

// OverrideSQLOpen replaces the function used to open connections and returns
// a func restoring the previous one.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := open
	open = fn
	return func() {
		openMu.Lock()
		open = prev
		openMu.Unlock()
	}
}
