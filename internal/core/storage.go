package core

import (
	"context"
	"fmt"
	"io"

	"housingcore/internal/blob"
	"housingcore/internal/infra/persistence/memory"
	"housingcore/internal/infra/persistence/postgres"
	"housingcore/internal/infra/persistence/sqlite"
	"housingcore/internal/records"
)

// StorageDriver identifies where the record tables are kept.
type StorageDriver string

const (
	StorageBlob     StorageDriver = "blob"     // one CSV object per table in a blob store (default)
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterises a backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	BlobPrefix  string
}

// OpenBackend returns the backend named by cfg.Driver. An empty driver means
// blob.
func OpenBackend(ctx context.Context, cfg StorageConfig) (records.Backend, error) {
	switch cfg.Driver {
	case "", StorageBlob:
		store, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return records.NewBlobBackend(store, cfg.BlobPrefix), nil
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// CloseBackend releases backends that hold a connection.
func CloseBackend(b records.Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
